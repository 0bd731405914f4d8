package util

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/errors"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionalBool(t *testing.T) {
	got, err := ParseOptionalBool("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseOptionalBool("false")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, *got)

	_, err = ParseOptionalBool("maybe")
	assert.Error(t, err)
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 5, ParseInt("5", 1))
	assert.Equal(t, 1, ParseInt("five", 1))
}

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/ui-components", nil)
	return c, w
}

func TestRespondWithAPIErrorIncludesFields(t *testing.T) {
	logger.InitializeForTest()
	c, w := newContext()

	RespondWithAPIError(c, errors.ValidationFailed(errors.FieldError{Field: "config.type", Message: "is required"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_FAILED", body.Code)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "config.type", body.Fields[0].Field)
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	logger.InitializeForTest()
	c, w := newContext()

	RespondError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	assert.Len(t, c.Errors, 1)
}

func TestUserHelpers(t *testing.T) {
	logger.InitializeForTest()
	c, w := newContext()

	_, ok := GetUserIDFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, _ = newContext()
	c.Set(ContextUserKey, &models.User{ID: "u1"})
	c.Set(ContextUserIDKey, "u1")

	user, ok := CurrentUser(c)
	require.True(t, ok)
	assert.Equal(t, "u1", user.ID)
	id, ok := OptionalUserID(c)
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
}
