package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidInputError(t *testing.T) {
	err := fmt.Errorf("resolve: %w", &InvalidInputError{Input: "https://example.com", Reason: "invalid spotify playlist url"})
	assert.True(t, IsInvalidInput(err))
	assert.False(t, IsUpstream(err))
	assert.Contains(t, err.Error(), `invalid spotify playlist url: "https://example.com"`)
}

func TestUpstreamErrorUnwraps(t *testing.T) {
	cause := errors.New("401 unauthorized")
	err := &UpstreamError{Op: "get playlist items", Err: cause}
	assert.True(t, IsUpstream(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to get playlist items: 401 unauthorized", err.Error())
}
