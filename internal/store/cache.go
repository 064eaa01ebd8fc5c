package store

import (
	"sort"

	"github.com/odysseus0/rssant/internal/model"
)

// Entity is what the cache can hold: something keyed by a server id that knows
// whether it carries its detail payload.
type Entity[T any] interface {
	EntityID() int64
	Updated() model.Timestamp
	DetailLoaded() bool
	KeepDetail(prev T) T
}

// cache is a by-id mapping. It is not safe for concurrent use; Store guards it.
type cache[T Entity[T]] struct {
	items map[int64]T
}

func newCache[T Entity[T]]() *cache[T] {
	return &cache[T]{items: make(map[int64]T)}
}

func (c *cache[T]) upsert(v T) {
	id := v.EntityID()
	if prev, ok := c.items[id]; ok {
		v = v.KeepDetail(prev)
	}
	c.items[id] = v
}

func (c *cache[T]) upsertMany(vs []T) {
	for _, v := range vs {
		c.upsert(v)
	}
}

// replace drops everything not present in vs.
func (c *cache[T]) replace(vs []T) {
	next := make(map[int64]T, len(vs))
	for _, v := range vs {
		id := v.EntityID()
		if prev, ok := c.items[id]; ok {
			v = v.KeepDetail(prev)
		} else if prev, ok := next[id]; ok {
			v = v.KeepDetail(prev)
		}
		next[id] = v
	}
	c.items = next
}

func (c *cache[T]) remove(id int64) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	return true
}

func (c *cache[T]) get(id int64) (T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *cache[T]) len() int {
	return len(c.items)
}

// list is newest first by (dt_updated, id).
func (c *cache[T]) list() []T {
	out := make([]T, 0, len(c.items))
	for _, v := range c.items {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return model.Before(out[j].Updated(), out[j].EntityID(), out[i].Updated(), out[i].EntityID())
	})
	return out
}
