package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(ErrNotFound, "classifier mammo")

	assert.True(t, Is(err, ErrNotFound))
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsInvalidRequestError(err))
	assert.Contains(t, err.Error(), "classifier mammo")
}

func TestNewInvalidRequestError(t *testing.T) {
	err := NewInvalidRequestError("threshold %v out of range", 1.5)

	require.Error(t, err)
	assert.True(t, IsInvalidRequestError(err))
	assert.Contains(t, err.Error(), "threshold 1.5 out of range")
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("no classifier named %q", "convnet")

	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), `no classifier named "convnet"`)
}

func TestQueryFailed(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, QueryFailed(nil, "liver"))
	})

	t.Run("marks and keeps the cause", func(t *testing.T) {
		cause := NewInvalidRequestError("unbalanced parenthesis")
		err := QueryFailed(cause, "liver:(true")

		assert.True(t, IsQueryFailedError(err))
		assert.True(t, IsInvalidRequestError(err), "cause must remain inspectable")
		assert.Contains(t, err.Error(), "unbalanced parenthesis")

		details := GetAllDetails(err)
		assert.Contains(t, details, "query: liver:(true")
	})

	t.Run("plain errors are not query failures", func(t *testing.T) {
		assert.False(t, IsQueryFailedError(New("disk full")))
	})
}

func TestServiceUnavailable(t *testing.T) {
	err := Wrap(ErrServiceUnavailable, "store not configured")
	assert.True(t, IsServiceUnavailableError(err))
	assert.False(t, IsServiceUnavailableError(nil))
}

func TestCycleDetected(t *testing.T) {
	err := Wrapf(ErrCycleDetected, "unresolved criteria: %v", []string{"5", "6"})
	assert.True(t, Is(err, ErrCycleDetected))
	assert.Contains(t, err.Error(), "unresolved criteria: [5 6]")
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithDetail(nil, "detail"))
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsQueryFailedError(nil))
}

func TestErrorChaining(t *testing.T) {
	err := Wrap(ErrQueryFailed, "layer 1")
	err = WithHint(err, "check the query syntax")
	err = WithDetail(err, "query: liver:")
	err = Wrap(err, "layer 2")

	assert.True(t, Is(err, ErrQueryFailed))
	assert.Contains(t, err.Error(), "layer 2")
	assert.Contains(t, GetAllHints(err), "check the query syntax")
	assert.Contains(t, GetAllDetails(err), "query: liver:")
}

func ExampleWrap() {
	err := Wrap(ErrCycleDetected, "failed to order endpoints")
	fmt.Println(err)
	// Output: failed to order endpoints: cyclic dependency detected
}
