package components

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/hearthstay/server/internal/errors"
)

// NamePattern constrains descriptor names to stable, URL-safe keys
var NamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-_.]{0,127}$`)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// Validate checks a decoded config against its variant's schema.
// It returns one FieldError per violation, or nil.
func Validate(cfg Config) []apperrors.FieldError {
	switch c := cfg.(type) {
	case *HTMLConfig, *CustomConfig, *UnknownConfig:
		return nil
	case *ListConfig:
		if c.DataKey == "" && len(c.Items) == 0 {
			return []apperrors.FieldError{{
				Field:   "config.items",
				Message: "list needs items or a dataKey",
			}}
		}
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperrors.FieldError{{Field: "config", Message: err.Error()}}
	}

	out := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return out
}

// DecodeAndValidate is the write-path check: the config must parse as the
// variant's shape and satisfy its schema.
func DecodeAndValidate(componentType string, raw []byte) (Config, []apperrors.FieldError) {
	cfg, err := Decode(componentType, raw)
	if err != nil {
		return nil, []apperrors.FieldError{{Field: "config", Message: decodeMessage(err)}}
	}
	return cfg, Validate(cfg)
}

// fieldPath turns "CardConfig.actions[0].label" into "config.actions[0].label"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return "config." + rest
	}
	return "config." + fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		if strings.HasPrefix(fe.Tag(), "uri") {
			return "must be an absolute URI or a site-relative path"
		}
		return "is invalid"
	}
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be %s", typeErr.Field, typeErr.Type.String())
	}
	return err.Error()
}
