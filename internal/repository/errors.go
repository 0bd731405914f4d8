package repository

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrComponentNotFound = errors.New("ui component not found")
	ErrDuplicateName     = errors.New("ui component name already exists")
	ErrUserNotFound      = errors.New("user not found")
)
