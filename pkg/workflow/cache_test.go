package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockrun/blockrun/pkg/workflow"
)

func TestOrderedCache_PreservesInsertionOrder(t *testing.T) {
	c := workflow.NewOrderedCache()
	c.Set("b", 2)
	c.Set("a", 1)
	c.Set("c", 3)
	c.Set("a", 10) // update in place, should not move

	entries := c.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "b", entries[0].Key)
	require.Equal(t, "a", entries[1].Key)
	require.Equal(t, 10, entries[1].Value)
	require.Equal(t, "c", entries[2].Key)
}

func TestOrderedCache_RoundTripThroughEntries(t *testing.T) {
	c := workflow.NewOrderedCache()
	c.Set("x", 1)
	c.Set("y", "two")

	rebuilt := workflow.NewOrderedCacheFromEntries(c.Entries())
	require.Equal(t, c.Entries(), rebuilt.Entries())
}

func TestOrderedCache_Delete(t *testing.T) {
	c := workflow.NewOrderedCache()
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")

	_, ok := c.Get("a")
	require.False(t, ok)
	require.Equal(t, []workflow.CacheEntry{{Key: "b", Value: 2}}, c.Entries())
}
