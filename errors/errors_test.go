package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelWrapping(t *testing.T) {
	err := Wrap(ErrMalformedResponse, "judgment response")
	assert.True(t, Is(err, ErrMalformedResponse))
	assert.True(t, IsMalformedResponse(err))
	assert.False(t, IsTimeout(err))
}

func TestNewMalformedResponse(t *testing.T) {
	err := NewMalformedResponse("missing field %q", "overall_score")
	assert.True(t, IsMalformedResponse(err))
	assert.Contains(t, err.Error(), "overall_score")
}

func TestTimeoutSentinel(t *testing.T) {
	err := Wrapf(ErrTimeout, "discovery call after %ds", 120)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsMalformedResponse(err))
}

func TestNilChecks(t *testing.T) {
	assert.False(t, IsMalformedResponse(nil))
	assert.False(t, IsTimeout(nil))
}
