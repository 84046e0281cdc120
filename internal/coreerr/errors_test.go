package coreerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := New(CycleDetected, "add_dependency", "t1->t2", nil)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, CycleDetected, kind)
}

func TestKindOfWrapped(t *testing.T) {
	inner := New(NotFound, "get_task", "t9", nil)
	wrapped := errors.Join(errors.New("context"), inner)
	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	require.Equal(t, NotFound, kind)
}

func TestOf(t *testing.T) {
	err := New(StoreError, "put_symbol", "", errors.New("disk full"))
	require.True(t, Of(err, StoreError))
	require.False(t, Of(err, NotFound))
}

func TestKindOfNonTaxonomyError(t *testing.T) {
	_, ok := KindOf(errors.New("plain error"))
	require.False(t, ok)
}
