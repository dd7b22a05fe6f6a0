package helpers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestExecuteWithRetryZeroRetriesStillExecutes(t *testing.T) {
	h := NewErrorHandler()

	calls := 0
	res, err := h.ExecuteWithRetry("database save", func() (interface{}, error) {
		calls++
		return "ok", nil
	}, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "ok", res)
}

// -----------------------------------------------------------------------------

func TestExecuteWithRetryZeroRetriesPropagatesError(t *testing.T) {
	h := NewErrorHandler()

	boom := errors.New("connection refused")
	calls := 0
	_, err := h.ExecuteWithRetry("network fetch", func() (interface{}, error) {
		calls++
		return nil, boom
	}, 0)

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, boom)
}

// -----------------------------------------------------------------------------

func TestRetryWithBackoffRecovers(t *testing.T) {
	calls := 0
	res, err := RetryWithBackoff("flaky op", 2, time.Millisecond, func() (interface{}, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 42, res)
}

// -----------------------------------------------------------------------------

func TestRetryWithBackoffExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := RetryWithBackoff("doomed op", 2, time.Millisecond, func() (interface{}, error) {
		calls++
		return nil, errors.New("permanent")
	})

	require.Error(t, err)
	// One initial attempt plus two retries
	assert.Equal(t, 3, calls)
}
