package store

import (
	"sync"
)

// collection 单个实体集合：按插入顺序保存，ID 单调递增且删除后不复用
type collection[T any] struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	items  map[int64]T
	idOf   func(*T) *int64
	clone  func(T) T
}

func newCollection[T any](idOf func(*T) *int64, clone func(T) T) *collection[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &collection[T]{
		nextID: 1,
		items:  make(map[int64]T),
		idOf:   idOf,
		clone:  clone,
	}
}

// seed 写入初始数据，保留原有 ID
func (c *collection[T]) seed(values []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range values {
		v = c.clone(v)
		id := *c.idOf(&v)
		if id <= 0 {
			id = c.nextID
			*c.idOf(&v) = id
		}
		if _, exists := c.items[id]; !exists {
			c.order = append(c.order, id)
		}
		c.items[id] = v
		if id >= c.nextID {
			c.nextID = id + 1
		}
	}
}

func (c *collection[T]) create(v T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	v = c.clone(v)
	id := c.nextID
	c.nextID++
	*c.idOf(&v) = id
	c.items[id] = v
	c.order = append(c.order, id)
	return c.clone(v)
}

// createUnique 在 conflict 返回 false 时才插入，检查与插入在同一把锁内完成
func (c *collection[T]) createUnique(v T, conflict func(*T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.order {
		existing := c.items[id]
		if conflict(&existing) {
			var zero T
			return zero, false
		}
	}

	v = c.clone(v)
	id := c.nextID
	c.nextID++
	*c.idOf(&v) = id
	c.items[id] = v
	c.order = append(c.order, id)
	return c.clone(v), true
}

func (c *collection[T]) get(id int64) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.clone(v), true
}

func (c *collection[T]) find(pred func(*T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, id := range c.order {
		v := c.items[id]
		if pred(&v) {
			return c.clone(v), true
		}
	}
	var zero T
	return zero, false
}

// list 返回完整物化的切片，顺序为插入顺序
func (c *collection[T]) list(pred func(*T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]T, 0)
	for _, id := range c.order {
		v := c.items[id]
		if pred == nil || pred(&v) {
			result = append(result, c.clone(v))
		}
	}
	return result
}

// update 浅合并：mutate 不能改变 ID
func (c *collection[T]) update(id int64, mutate func(*T)) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	v = c.clone(v)
	mutate(&v)
	*c.idOf(&v) = id
	c.items[id] = v
	return c.clone(v), true
}

// updateWhere 更新第一条满足条件的记录
func (c *collection[T]) updateWhere(pred func(*T) bool, mutate func(*T)) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.order {
		v := c.items[id]
		if !pred(&v) {
			continue
		}
		v = c.clone(v)
		mutate(&v)
		*c.idOf(&v) = id
		c.items[id] = v
		return c.clone(v), true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) delete(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}
