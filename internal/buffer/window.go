// Package buffer 提供固定容量的时序滑动窗口
//
// 每个会话/设备持有独立的窗口实例；窗口本身不做并发保护，
// 调用方（session 包）负责按设备串行化访问。
package buffer

// Window 固定容量的 FIFO 滑动窗口
// 写满后继续 Push 会静默淘汰最旧的样本
type Window[T any] struct {
	items    []T
	capacity int
}

// NewWindow 创建容量为 capacity 的滑动窗口
func NewWindow[T any](capacity int) *Window[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push 追加一个样本，超出容量时淘汰最旧的样本
func (w *Window[T]) Push(item T) {
	if len(w.items) == w.capacity {
		copy(w.items, w.items[1:])
		w.items[len(w.items)-1] = item
		return
	}
	w.items = append(w.items, item)
}

// Snapshot 返回当前窗口内容的副本（时间正序），不修改窗口
func (w *Window[T]) Snapshot() []T {
	out := make([]T, len(w.items))
	copy(out, w.items)
	return out
}

// Len 返回当前样本数量
func (w *Window[T]) Len() int {
	return len(w.items)
}

// Capacity 返回窗口容量
func (w *Window[T]) Capacity() int {
	return w.capacity
}

// Clear 清空窗口
func (w *Window[T]) Clear() {
	w.items = w.items[:0]
}
