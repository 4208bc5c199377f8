package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:      http.StatusUnprocessableEntity,
		KindUnauthenticated: http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusBadRequest,
		KindTooManyRequests: http.StatusTooManyRequests,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status())
	}
}

func TestFrom(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("User not found"))
	e := From(wrapped)
	assert.Equal(t, KindNotFound, e.Kind)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindForbidden))

	cause := errors.New("boom")
	e = From(cause)
	assert.Equal(t, KindInternal, e.Kind)
	assert.ErrorIs(t, e, cause)
}

func TestFieldError(t *testing.T) {
	e := FieldError("email", "The email has already been taken.")
	assert.Equal(t, KindValidation, e.Kind)
	assert.Equal(t, []string{"The email has already been taken."}, e.Fields["email"])
}
