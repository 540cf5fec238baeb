package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	docs := []Document{
		{ID: "s1", Data: []byte(`{"_id":"s1","playerId":"p1","endedAt":0}`)},
		{ID: "s2", Data: []byte(`{"_id":"s2","playerId":"p1","endedAt":1700000000000}`)},
		{ID: "s3", Data: []byte(`{"_id":"s3","playerId":"p2","endedAt":0,"action":{"kind":"BAN"},"note":null}`)},
	}
	for _, d := range docs {
		require.NoError(t, m.Save(ctx, TableSessions, d))
	}

	cases := []struct {
		name    string
		filters []Filter
		want    []string
	}{
		{name: "no filter", want: []string{"s1", "s2", "s3"}},
		{name: "string", filters: []Filter{Where("playerId", "p1")}, want: []string{"s1", "s2"}},
		{name: "zero number", filters: []Filter{Where("playerId", "p1"), Where("endedAt", "0")}, want: []string{"s1"}},
		{name: "large number keeps digits", filters: []Filter{Where("endedAt", "1700000000000")}, want: []string{"s2"}},
		{name: "nested", filters: []Filter{Where("action.kind", "BAN")}, want: []string{"s3"}},
		{name: "null never matches", filters: []Filter{Where("note", "")}, want: nil},
		{name: "missing path", filters: []Filter{Where("nope.deeper", "x")}, want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := m.List(ctx, TableSessions, tc.filters...)
			require.NoError(t, err)

			var ids []string
			for _, r := range rows {
				var doc struct {
					ID string `json:"_id"`
				}
				require.NoError(t, json.Unmarshal(r, &doc))
				ids = append(ids, doc.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestMemoryFindByIDOrName(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Save(ctx, TableTags, Document{ID: "t1", NameLower: "vip", Data: []byte(`{"_id":"t1"}`)}))
	require.NoError(t, m.Save(ctx, TableTags, Document{ID: "vip", Data: []byte(`{"_id":"vip"}`)}))

	got, err := m.FindByIDOrName(ctx, TableTags, "vip")
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"vip"}`, string(got), "exact id wins over a name match")

	got, err = m.FindByIDOrName(ctx, TableTags, "VIP")
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	_, err = m.FindByIDOrName(ctx, TableTags, "none")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.Delete(ctx, TableTags, "none"), ErrNotFound)
}
