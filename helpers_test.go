package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := retry(3, 0, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := retry(2, 0, func() (int, error) {
		calls++
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestSessionRoutingKey(t *testing.T) {
	assert.Equal(t, "session.abc", sessionRoutingKey("abc"))
}

func TestSessionUpdate(t *testing.T) {
	u := sessionUpdate("abc", statusCompleted, "done")
	assert.Equal(t, "abc", u["session_id"])
	assert.Equal(t, statusCompleted, u["status"])
	assert.Equal(t, "done", u["message"])
	assert.Contains(t, u, "timestamp")
}
