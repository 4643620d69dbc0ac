package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func Test_NewCustomError(t *testing.T) {
	err := New(ERR_NOT_FOUND, "resource not found")
	require.NotNil(t, err)
	require.Equal(t, ERR_NOT_FOUND, err.Code())
	require.Equal(t, "resource not found", err.Message())

	secondErr := New(ERR_INVALID_ARGUMENT, "[Validate][%s] failed", "_test_string_", err)
	thirdErr := New(ERR_CONFLICT, "[Commit][%s] failed", "_test_string_", secondErr)
	anotherErr := New(ERR_CONFLICT, "another conflict")
	fourthErr := New(ERR_SERVICE_ERROR, "older error: ", thirdErr)

	require.Equal(t, "[Validate][_test_string_] failed", secondErr.Message())
	require.True(t, anotherErr.Is(thirdErr))
	require.True(t, fourthErr.Is(ErrConflict))
	require.True(t, fourthErr.Is(err))
	require.False(t, anotherErr.Is(fourthErr))
	require.False(t, fourthErr.Is(ErrMissingDependency))
}

func Test_StandardErrorsIs(t *testing.T) {
	err := NewProcedureError("input stack not empty")
	wrapped := fmt.Errorf("validate: %w", err)

	assert.True(t, errors.Is(wrapped, ErrProcedure))
	assert.True(t, Is(wrapped, ErrProcedure))
	assert.False(t, Is(wrapped, ErrStateless))

	var tErr *Error
	require.True(t, As(wrapped, &tErr))
	assert.Equal(t, ERR_PROCEDURE, tErr.Code())
}

func Test_InvalidCode(t *testing.T) {
	err := New(ERR(999), "something")
	assert.Equal(t, "invalid error code", err.Message())
	assert.Equal(t, "ERR(999)", ERR(999).Enum())
}

func Test_WrapsPlainError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("failed to store atom", cause)

	assert.Equal(t, cause, err.(*Error).WrappedErr())
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, errors.Is(err, cause))
}

func Test_ErrData(t *testing.T) {
	err := New(ERR_PROCEDURE, "witness error")
	err.SetData("particle", 3)

	assert.Equal(t, 3, err.GetData("particle"))
	assert.Nil(t, err.GetData("missing"))
	assert.Contains(t, err.Error(), "particle")
}

func Test_SpinConflictErrData(t *testing.T) {
	particle := chainhash.DoubleHashH([]byte("particle"))
	atom := chainhash.DoubleHashH([]byte("atom"))
	other := chainhash.DoubleHashH([]byte("other"))

	err := NewSpinConflictError(particle, "DOWN", atom, other)
	require.True(t, Is(err, ErrConflict))

	var data *SpinConflictErrData
	require.True(t, AsData(err, &data))
	assert.Equal(t, particle.String(), data.ParticleHash)
	assert.Equal(t, other.String(), data.ConflictingAtomID)
	assert.Equal(t, "DOWN", data.GetData("spin"))
}

func Test_WrapUnwrapGRPC(t *testing.T) {
	inner := NewMissingDependencyError("particle not up")
	outer := New(ERR_SERVICE_ERROR, "commit failed", inner)

	grpcErr := WrapGRPC(outer)
	require.Error(t, grpcErr)

	st, ok := status.FromError(grpcErr)
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())

	unwrapped := UnwrapGRPC(grpcErr)
	require.NotNil(t, unwrapped)
	assert.Equal(t, ERR_SERVICE_ERROR, unwrapped.Code())
	assert.Equal(t, "commit failed", unwrapped.Message())
	assert.True(t, unwrapped.Is(ErrMissingDependency))

	assert.True(t, Is(grpcErr, ErrMissingDependency))
}

func Test_WrapGRPCWithData(t *testing.T) {
	particle := chainhash.DoubleHashH([]byte("p"))
	err := NewSpinConflictError(particle, "UP", chainhash.Hash{}, chainhash.Hash{})

	unwrapped := UnwrapGRPC(WrapGRPC(err))
	require.NotNil(t, unwrapped)
	assert.Equal(t, ERR_CONFLICT, unwrapped.Code())

	data, ok := unwrapped.Data().(*SpinConflictErrData)
	require.True(t, ok)
	assert.Equal(t, "UP", data.Spin)
}

func Test_ErrorCodeToGRPCCode(t *testing.T) {
	tests := []struct {
		code ERR
		want codes.Code
	}{
		{ERR_UNKNOWN, codes.Unknown},
		{ERR_STATELESS, codes.InvalidArgument},
		{ERR_CONFLICT, codes.AlreadyExists},
		{ERR_MISSING_DEPENDENCY, codes.FailedPrecondition},
		{ERR_STORAGE_ERROR, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCodeToGRPCCode(tt.code))
		})
	}
}

func Test_Join(t *testing.T) {
	assert.Nil(t, Join(nil, nil))
	assert.Equal(t, "a, b", Join(errors.New("a"), nil, errors.New("b")).Error())
}
