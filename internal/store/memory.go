package store

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Memory is an in-process Durable used by tests and the "memory" backend.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]map[string]Document
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]map[string]Document)}
}

var _ Durable = (*Memory)(nil)

func (m *Memory) FindByIDOrName(ctx context.Context, table, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.tables[table]
	if d, ok := docs[key]; ok {
		return clone(d.Data), nil
	}
	lower := strings.ToLower(key)
	if d, ok := docs[lower]; ok {
		return clone(d.Data), nil
	}
	for _, id := range sortedIDs(docs) {
		if d := docs[id]; d.NameLower != "" && d.NameLower == lower {
			return clone(d.Data), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Find(ctx context.Context, table, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.tables[table][id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(d.Data), nil
}

func (m *Memory) Save(ctx context.Context, table string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.tables[table]
	if !ok {
		docs = make(map[string]Document)
		m.tables[table] = docs
	}
	doc.Data = clone(doc.Data)
	docs[doc.ID] = doc
	return nil
}

func (m *Memory) List(ctx context.Context, table string, filters ...Filter) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.tables[table]
	var out [][]byte
	for _, id := range sortedIDs(docs) {
		d := docs[id]
		ok, err := matches(d.Data, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, clone(d.Data))
		}
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table][id]; !ok {
		return ErrNotFound
	}
	delete(m.tables[table], id)
	return nil
}

// matches mirrors Postgres `data #>> path = value`: the value at path is
// rendered as text and JSON null never matches.
func matches(data []byte, filters []Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return false, err
	}
	for _, f := range filters {
		text, ok := textAt(doc, strings.Split(f.Path, "."))
		if !ok || text != f.Value {
			return false, nil
		}
	}
	return true, nil
}

func textAt(v any, path []string) (string, bool) {
	for _, p := range path {
		switch node := v.(type) {
		case map[string]any:
			v = node[p]
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= len(node) {
				return "", false
			}
			v = node[i]
		default:
			return "", false
		}
	}
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

func sortedIDs(docs map[string]Document) []string {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
