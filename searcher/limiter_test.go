package searcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	t.Run("caps started iterations", func(t *testing.T) {
		l := newLimiter(3, 0)

		for i := 0; i < 3; i++ {
			require.True(t, l.next(), "Iteration %d should fit the budget", i)
		}
		require.False(t, l.next(), "Budget should be exhausted")
		require.False(t, l.next(), "Budget should stay exhausted")
	})

	t.Run("zero-iteration budget", func(t *testing.T) {
		l := newLimiter(0, 0)

		require.False(t, l.next(), "Nothing should run on a zero budget")
	})

	t.Run("deadline only", func(t *testing.T) {
		l := newLimiter(-1, 10*time.Millisecond)

		require.True(t, l.next(), "Should run before the deadline")
		time.Sleep(15 * time.Millisecond)
		require.False(t, l.next(), "Should stop after the deadline")
	})

	t.Run("iterations and deadline combined", func(t *testing.T) {
		l := newLimiter(1000, 10*time.Millisecond)

		require.True(t, l.next())
		time.Sleep(15 * time.Millisecond)
		require.False(t, l.next(),
			"Deadline should stop the search before the iteration cap")
	})
}
