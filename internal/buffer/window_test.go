package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"norn-analytics/internal/buffer"
)

func TestWindow_PushNeverExceedsCapacity(t *testing.T) {
	w := buffer.NewWindow[int](10)

	for i := 0; i < 100; i++ {
		w.Push(i)
		require.LessOrEqual(t, w.Len(), 10)
	}

	require.Equal(t, 10, w.Len())
}

func TestWindow_EvictionIsFIFO(t *testing.T) {
	w := buffer.NewWindow[int](3)

	w.Push(1)
	w.Push(2)
	w.Push(3)
	require.Equal(t, []int{1, 2, 3}, w.Snapshot())

	// 写满后继续写入，最旧的样本先被淘汰
	w.Push(4)
	require.Equal(t, []int{2, 3, 4}, w.Snapshot())

	w.Push(5)
	w.Push(6)
	require.Equal(t, []int{4, 5, 6}, w.Snapshot())
}

func TestWindow_SnapshotDoesNotMutate(t *testing.T) {
	w := buffer.NewWindow[int](5)
	w.Push(1)
	w.Push(2)

	snap := w.Snapshot()
	snap[0] = 99

	require.Equal(t, []int{1, 2}, w.Snapshot())
	require.Equal(t, 2, w.Len())
}

func TestWindow_Clear(t *testing.T) {
	w := buffer.NewWindow[string](4)
	w.Push("a")
	w.Push("b")

	w.Clear()
	require.Equal(t, 0, w.Len())
	require.Empty(t, w.Snapshot())

	// 清空后可继续使用
	w.Push("c")
	require.Equal(t, []string{"c"}, w.Snapshot())
}

func TestWindow_ZeroCapacityFallsBackToOne(t *testing.T) {
	w := buffer.NewWindow[int](0)
	w.Push(1)
	w.Push(2)
	require.Equal(t, 1, w.Len())
	require.Equal(t, []int{2}, w.Snapshot())
}
