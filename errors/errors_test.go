package errors_test

import (
	"fmt"
	"testing"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const errTest errors.Error = "test error"

func TestError_Wrap_Success(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := errTest.Wrap(cause)

	assert.Equal(t, "test error -- boom", err.Error())
	assert.ErrorIs(t, err, errTest)
	assert.ErrorIs(t, err, cause)
}

func TestError_Is_PrefixMatch(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("outer: %w", errTest.Wrap(errors.New("inner")))
	assert.True(t, errors.Is(err, errTest))
}

func TestUnknownDiscriminatorError_Message(t *testing.T) {
	t.Parallel()

	err := &errors.UnknownDiscriminatorError{
		AbstractType: "State",
		Property:     "type",
		Value:        "teleport",
		Accepted:     []string{"sleep", "event"},
	}

	assert.Equal(t, `State: unknown type "teleport", expected one of [event, sleep]`, err.Error())
}

func TestDecodeError_UnwrapsBothAttempts(t *testing.T) {
	t.Parallel()

	left := errors.New("left failed")
	right := errors.New("right failed")
	var err error = &errors.DecodeError{Left: "object", Right: "string", LeftErr: left, RightErr: right}

	assert.ErrorIs(t, err, left)
	assert.ErrorIs(t, err, right)

	var decodeErr *errors.DecodeError
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &decodeErr)
	assert.Equal(t, "object", decodeErr.Left)
}

func TestUnwrapErrors(t *testing.T) {
	t.Parallel()

	a := errors.New("a")
	b := errors.New("b")

	assert.Nil(t, errors.UnwrapErrors(nil))
	assert.Equal(t, []error{a}, errors.UnwrapErrors(a))
	assert.Equal(t, []error{a, b}, errors.UnwrapErrors(errors.Join(a, b)))
}
