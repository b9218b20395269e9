package notice

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"estatehub/internal/client/backend"
)

func TestFromBackend(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{&backend.Error{Kind: backend.ErrInvalidCredentials}, CodeInvalidCredentials},
		{fmt.Errorf("wrapped: %w", backend.ErrTransient), CodeUnavailable},
		{backend.ErrUnauthorized, CodeSessionExpired},
		{backend.ErrForbidden, CodeForbidden},
		{backend.ErrConflict, CodeConflict},
		{backend.ErrNotFound, CodeNotFound},
		{errors.New("boom"), CodeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			n := FromBackend(tt.err)
			assert.Equal(t, tt.code, n.Code)
			assert.Equal(t, LevelError, n.Level)
			assert.NotEmpty(t, n.Message)
		})
	}
}

func TestBadRequestKeepsServerMessage(t *testing.T) {
	n := FromBackend(&backend.Error{Kind: backend.ErrBadRequest, Status: 400, Message: "Price must be positive"})
	assert.Equal(t, "Price must be positive", n.Message)
}

func TestEmitRecordsAndUnwraps(t *testing.T) {
	rec := &Recorder{}
	sentinel := errors.New("sentinel")

	err := Emit(rec, Notice{Level: LevelInfo, Code: CodeAlreadyInCart, Message: "Already in cart", Err: sentinel})
	assert.ErrorIs(t, err, sentinel)
	assert.EqualError(t, err, "Already in cart")
	assert.Equal(t, 1, rec.Count(CodeAlreadyInCart))

	last, ok := rec.Last()
	assert.True(t, ok)
	assert.Equal(t, LevelInfo, last.Level)
}
