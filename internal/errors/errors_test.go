package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := ConfigInvalid("PORT is required")
	wrapped := Wrap(base, "failed to load server configuration")

	assert.Equal(t, CodeConfigInvalid, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "PORT is required")
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	err := Wrapf(fmt.Errorf("boom"), "step %d", 3)
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Equal(t, "step 3: boom", err.Error())
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}

func TestIsDataUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct", DataUnavailable(fmt.Errorf("404")), true},
		{"wrapped by context", Wrap(DataUnavailable(fmt.Errorf("timeout")), "load fact table"), true},
		{"fmt wrapped", fmt.Errorf("outer: %w", DataUnavailable(nil)), true},
		{"other code", InvalidInput("bad year"), false},
		{"plain", fmt.Errorf("nope"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDataUnavailable(tt.err))
		})
	}
}

func TestHasCodeSearchesWholeChain(t *testing.T) {
	inner := ExternalServiceError("sheets", fmt.Errorf("server returned 403"))
	err := DataUnavailable(fmt.Errorf("fetch: %w", inner))

	assert.Equal(t, CodeDataUnavailable, GetCode(err))
	assert.True(t, HasCode(err, CodeExternalService))
	assert.True(t, HasCode(err, CodeDataUnavailable))
	assert.False(t, HasCode(err, CodeValidationError))
	assert.False(t, HasCode(fmt.Errorf("plain"), CodeExternalService))
	assert.False(t, HasCode(nil, CodeExternalService))
}
