package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/greenadmin/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, s)
	}
}

func TestMonotonicWithinSameInstant(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	a := idx.NewAt(at)
	b := idx.NewAt(at)

	// Same millisecond still sorts in generation order.
	require.Less(t, a.String(), b.String())
	require.WithinDuration(t, at, a.Time(), time.Millisecond)
}

func TestNewString(t *testing.T) {
	require.Len(t, idx.NewString(), 26)
	require.True(t, idx.Zero.Time().IsZero())
}
