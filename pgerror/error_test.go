package pgerror

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/require"
)

func TestServerErrorCarriesSQLSTATE(t *testing.T) {
	err := Server(map[byte]string{
		'S': "ERROR",
		'C': pgerrcode.UniqueViolation,
		'M': "duplicate key value violates unique constraint",
	})

	require.Equal(t, KindServer, err.Kind)
	require.Equal(t, pgerrcode.UniqueViolation, err.Code)
	require.Contains(t, err.Error(), "duplicate key")
}

func TestErrorIsMatchesByKind(t *testing.T) {
	err := ConnectionClosed()
	require.True(t, errors.Is(err, ConnectionClosed()))
	require.False(t, errors.Is(err, CursorClosed()))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Socket(cause)
	require.Same(t, cause, errors.Unwrap(err))
}
