package errors

import (
	"testing"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestCompileError(t *testing.T) {
	err := NewCompileError("Quiver.ClientError.Statement.SyntaxError", "invalid input 'RETURN'")
	require.True(t, IsCompileError(err))
	require.False(t, IsRuntimeError(err))
	require.Contains(t, err.Error(), "Quiver.ClientError.Statement.SyntaxError")

	var ce *CompileError
	require.True(t, cerrors.As(err, &ce))
	require.Equal(t, "invalid input 'RETURN'", ce.Message)
}

func TestRuntimeError(t *testing.T) {
	err := NewRuntimeError("Quiver.ClientError.Statement.ArithmeticError", "/ by zero")
	require.True(t, IsRuntimeError(err))
	require.False(t, IsCompileError(err))
	require.False(t, IsTransportError(err))
}

func TestTransportErrorWrapsCause(t *testing.T) {
	cause := cerrors.New("connection reset by peer")
	err := NewTransportError("connection lost", cause)
	require.True(t, IsTransportError(err))
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "connection reset by peer")
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	err := cerrors.Wrap(NewRuntimeError("Quiver.DatabaseError.General.Unknown", "boom"), "while fetching")
	require.True(t, IsRuntimeError(err))
}

func TestLogicError(t *testing.T) {
	err := Logicf("future completed %d times", 2)
	require.True(t, IsLogicError(err))
	require.Equal(t, "logic error: future completed 2 times", err.Error())
	require.False(t, IsTransportError(err))
}
