package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-memory Store used by tests, mirroring the in-memory
// repository managers used elsewhere in the repo. Transactions take a
// store-wide lock, so the body never observes a conflict and runs once.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]any)}
}

func (s *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: s, name: name}
}

func (s *MemoryStore) NewBatch() Batch {
	return &memoryBatch{store: s}
}

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, w := range tx.writes {
		s.applyLocked(w)
	}
	return nil
}

func (s *MemoryStore) collectionLocked(name string) map[string]map[string]any {
	col, ok := s.collections[name]
	if !ok {
		col = make(map[string]map[string]any)
		s.collections[name] = col
	}
	return col
}

func (s *MemoryStore) applyLocked(w stagedWrite) {
	col := s.collectionLocked(w.collection)
	if w.merge {
		existing, ok := col[w.id]
		if !ok {
			existing = make(map[string]any)
		}
		merged := copyData(existing)
		for k, v := range w.data {
			merged[k] = v
		}
		col[w.id] = merged
		return
	}
	col[w.id] = copyData(w.data)
}

type memoryCollection struct {
	store *MemoryStore
	name  string
}

func (c *memoryCollection) Name() string { return c.name }

func (c *memoryCollection) NewID() string { return uuid.NewString() }

func (c *memoryCollection) Get(ctx context.Context, id string) (*Doc, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	data, ok := c.store.collectionLocked(c.name)[id]
	if !ok {
		return nil, nil
	}
	return &Doc{ID: id, Data: copyData(data)}, nil
}

func (c *memoryCollection) Set(ctx context.Context, id string, data map[string]any) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.applyLocked(stagedWrite{collection: c.name, id: id, data: data})
	return nil
}

func (c *memoryCollection) MergeSet(ctx context.Context, id string, data map[string]any) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.applyLocked(stagedWrite{collection: c.name, id: id, data: data, merge: true})
	return nil
}

func (c *memoryCollection) Delete(ctx context.Context, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	delete(c.store.collectionLocked(c.name), id)
	return nil
}

func (c *memoryCollection) Query(ctx context.Context, q Query) ([]*Doc, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	var docs []*Doc
	for id, data := range c.store.collectionLocked(c.name) {
		match, err := matches(id, data, q.Where)
		if err != nil {
			return nil, err
		}
		if match {
			docs = append(docs, &Doc{ID: id, Data: copyData(data)})
		}
	}

	if len(q.OrderBy) == 0 {
		// Deterministic order for tests, even without an explicit sort.
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
		return docs, nil
	}

	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range q.OrderBy {
			cmp := compareValues(fieldValue(docs[i], o.Field), fieldValue(docs[j], o.Field))
			if cmp == 0 {
				continue
			}
			if o.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return docs[i].ID < docs[j].ID
	})

	if len(q.StartAfter) > 0 {
		first := q.OrderBy[0]
		filtered := docs[:0]
		for _, d := range docs {
			cmp := compareValues(fieldValue(d, first.Field), q.StartAfter[0])
			if (first.Desc && cmp < 0) || (!first.Desc && cmp > 0) {
				filtered = append(filtered, d)
			}
		}
		docs = filtered
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

type memoryBatch struct {
	store  *MemoryStore
	writes []stagedWrite
}

func (b *memoryBatch) Set(collection, id string, data map[string]any) {
	b.writes = append(b.writes, stagedWrite{collection: collection, id: id, data: copyData(data)})
}

func (b *memoryBatch) MergeSet(collection, id string, data map[string]any) {
	b.writes = append(b.writes, stagedWrite{collection: collection, id: id, data: copyData(data), merge: true})
}

func (b *memoryBatch) Commit(ctx context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, w := range b.writes {
		b.store.applyLocked(w)
	}
	return nil
}

type memoryTx struct {
	store  *MemoryStore
	writes []stagedWrite
}

func (t *memoryTx) Get(ctx context.Context, collection, id string) (*Doc, error) {
	data, ok := t.store.collectionLocked(collection)[id]
	if !ok {
		return nil, nil
	}
	return &Doc{ID: id, Data: copyData(data)}, nil
}

func (t *memoryTx) MergeSet(collection, id string, data map[string]any) {
	t.writes = append(t.writes, stagedWrite{collection: collection, id: id, data: copyData(data), merge: true})
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func fieldValue(d *Doc, field string) any {
	if field == "id" {
		return d.ID
	}
	return d.Data[field]
}

func matches(id string, data map[string]any, where []Where) (bool, error) {
	for _, w := range where {
		var v any
		if w.Field == "id" {
			v = id
		} else {
			v = data[w.Field]
		}
		ok, err := evalWhere(v, w)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evalWhere(v any, w Where) (bool, error) {
	switch w.Op {
	case "==":
		return compareValues(v, w.Value) == 0, nil
	case "!=":
		return compareValues(v, w.Value) != 0, nil
	case "<":
		return compareValues(v, w.Value) < 0, nil
	case "<=":
		return compareValues(v, w.Value) <= 0, nil
	case ">":
		return compareValues(v, w.Value) > 0, nil
	case ">=":
		return compareValues(v, w.Value) >= 0, nil
	case "in":
		for _, candidate := range toSlice(w.Value) {
			if compareValues(v, candidate) == 0 {
				return true, nil
			}
		}
		return false, nil
	case "array-contains":
		for _, member := range toSlice(v) {
			if compareValues(member, w.Value) == 0 {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported query operator %q", w.Op)
	}
}

func toSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	case []int64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	default:
		return nil
	}
}

// compareValues orders two field values. Numbers (including storage
// timestamps) compare numerically, strings lexically, bools false<true.
// Absent values sort before present ones.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}

	ab, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	}

	// Incomparable types: fall back to formatted comparison so sorting
	// stays total.
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case primitive.DateTime:
		return float64(int64(n)), true
	default:
		return 0, false
	}
}
