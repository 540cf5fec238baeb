package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Durable is the authoritative document store. Documents are JSON keyed by
// id, with an optional lowercased name used for secondary lookups.
//
// Implementations return ErrNotFound for misses and any other error for
// backend failures; callers in this package classify the latter as
// unavailable.
type Durable interface {
	// FindByIDOrName matches id = key, id = lower(key) or
	// name_lower = lower(key), preferring them in that order.
	FindByIDOrName(ctx context.Context, table, key string) ([]byte, error)
	Find(ctx context.Context, table, id string) ([]byte, error)
	Save(ctx context.Context, table string, doc Document) error
	List(ctx context.Context, table string, filters ...Filter) ([][]byte, error)
	Delete(ctx context.Context, table, id string) error
}

type Document struct {
	ID        string
	NameLower string
	Data      []byte
}

// Filter is an equality test on a dotted JSON path, compared as text.
type Filter struct {
	Path  string
	Value string
}

func Where(path, value string) Filter {
	return Filter{Path: path, Value: value}
}

// Entity is anything the stores can persist.
type Entity interface {
	EntityID() string
	// LookupName is the lowercased secondary key, or "" when the entity has none.
	LookupName() string
}

// Collection is the typed durable side of one table.
type Collection[T Entity] struct {
	table string
	db    Durable
}

func NewCollection[T Entity](table string, db Durable) *Collection[T] {
	return &Collection[T]{table: table, db: db}
}

func (c *Collection[T]) Table() string { return c.table }

func (c *Collection[T]) Find(ctx context.Context, id string) (T, error) {
	data, err := c.db.Find(ctx, c.table, id)
	return c.decodeResult(data, err, "find")
}

func (c *Collection[T]) FindByIDOrName(ctx context.Context, key string) (T, error) {
	data, err := c.db.FindByIDOrName(ctx, c.table, key)
	return c.decodeResult(data, err, "find")
}

// Save upserts by the entity's own id.
func (c *Collection[T]) Save(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: encode %q: %w", c.table, v.EntityID(), err)
	}
	doc := Document{ID: v.EntityID(), NameLower: v.LookupName(), Data: data}
	if err := c.db.Save(ctx, c.table, doc); err != nil {
		return unavailable(LayerDurable, "save "+c.table, err)
	}
	return nil
}

func (c *Collection[T]) List(ctx context.Context, filters ...Filter) ([]T, error) {
	rows, err := c.db.List(ctx, c.table, filters...)
	if err != nil {
		return nil, unavailable(LayerDurable, "list "+c.table, err)
	}
	out := make([]T, 0, len(rows))
	for _, data := range rows {
		v, err := decode[T](data)
		if err != nil {
			return nil, fmt.Errorf("%s: decode: %w", c.table, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.db.Delete(ctx, c.table, id); err != nil && !errors.Is(err, ErrNotFound) {
		return unavailable(LayerDurable, "delete "+c.table, err)
	}
	return nil
}

func (c *Collection[T]) decodeResult(data []byte, err error, op string) (T, error) {
	var zero T
	if errors.Is(err, ErrNotFound) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, unavailable(LayerDurable, op+" "+c.table, err)
	}
	v, err := decode[T](data)
	if err != nil {
		return zero, fmt.Errorf("%s: decode: %w", c.table, err)
	}
	return v, nil
}

func decode[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}
