package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sg-semilla/semilla-auth/internal/apperr"
)

var errNotThere = apperr.New(apperr.KindNotFound, "thing not found")

func TestKindOf(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   apperr.Kind
		wantStatus int
	}{
		{"plain error", errors.New("boom"), apperr.KindInternal, http.StatusInternalServerError},
		{"sentinel", errNotThere, apperr.KindNotFound, http.StatusNotFound},
		{"wrapped sentinel", fmt.Errorf("lookup: %w", errNotThere), apperr.KindNotFound, http.StatusNotFound},
		{"validation", apperr.Validation("bad", map[string]string{"a": "b"}), apperr.KindValidation, http.StatusBadRequest},
		{"authentication", apperr.New(apperr.KindAuthentication, "who"), apperr.KindAuthentication, http.StatusUnauthorized},
		{"authorization", apperr.New(apperr.KindAuthorization, "no"), apperr.KindAuthorization, http.StatusForbidden},
		{"unavailable", apperr.Wrap(apperr.KindUnavailable, "down", errors.New("dial")), apperr.KindUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, apperr.KindOf(tt.err))
			assert.Equal(t, tt.wantStatus, apperr.KindOf(tt.err).Status())
			assert.True(t, apperr.Is(tt.err, tt.wantKind))
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := apperr.Wrap(apperr.KindUnavailable, "directory unavailable", cause)

	assert.Equal(t, "directory unavailable: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "thing not found", errNotThere.Error())
	assert.False(t, apperr.Is(nil, apperr.KindInternal))
}
