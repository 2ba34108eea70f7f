package install

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStateClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*State)(nil).Clone())

	s := &State{Version: "1:1.2.3", LastUpdateCheck: time.Unix(1650000000, 0).UTC()}
	c := s.Clone()

	require.Equal(t, s, c)
	require.NotSame(t, s, c)
}

func TestCheckedWithin(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := &State{LastUpdateCheck: now.Add(-23 * time.Hour)}

	require.True(t, s.CheckedWithin(now, 24*time.Hour))
	require.False(t, s.CheckedWithin(now.Add(time.Hour), 24*time.Hour))
	require.False(t, (&State{}).CheckedWithin(now, 24*time.Hour))
	require.False(t, (*State)(nil).CheckedWithin(now, 24*time.Hour))
}
