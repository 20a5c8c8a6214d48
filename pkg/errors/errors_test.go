package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	err := New(ErrOutbid, "bid does not beat the current highest bid")
	require.Equal(t, ErrOutbid, CodeOf(err))

	wrapped := fmt.Errorf("placing bid: %w", err)
	require.Equal(t, ErrOutbid, CodeOf(wrapped), "code survives wrapping")

	require.Equal(t, ErrInternalServer, CodeOf(errors.New("plain")), "unknown errors map to internal")
}

func TestIs(t *testing.T) {
	err := Wrap(ErrConcurrentUpdate, "highest bid moved", errors.New("0 rows"))
	require.True(t, Is(err, ErrConcurrentUpdate))
	require.False(t, Is(err, ErrConflict))
	require.False(t, Is(nil, ErrConflict))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrStoreUnavailable, "store unreachable", cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "store unreachable")
	require.Contains(t, err.Error(), "connection reset")
}
