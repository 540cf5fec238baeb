package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tables known to the schema in internal/migrate/migrations.
const (
	TablePlayers     = "players"
	TableMatches     = "matches"
	TableRanks       = "ranks"
	TableTags        = "tags"
	TablePunishments = "punishments"
	TableSessions    = "sessions"
)

var knownTables = map[string]bool{
	TablePlayers:     true,
	TableMatches:     true,
	TableRanks:       true,
	TableTags:        true,
	TablePunishments: true,
	TableSessions:    true,
}

// Postgres stores documents as JSONB rows (id, name_lower, data).
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

var _ Durable = (*Postgres)(nil)

func tableIdent(table string) (string, error) {
	if !knownTables[table] {
		return "", fmt.Errorf("unknown table %q", table)
	}
	return pgx.Identifier{table}.Sanitize(), nil
}

func (p *Postgres) FindByIDOrName(ctx context.Context, table, key string) ([]byte, error) {
	t, err := tableIdent(table)
	if err != nil {
		return nil, err
	}
	// Exact id, then lowercased id, then name.
	q := fmt.Sprintf(`
		SELECT data FROM %s
		WHERE name_lower = $1 OR id = $2 OR id = $1
		ORDER BY (id = $2) DESC, (id = $1) DESC, id
		LIMIT 1`, t)
	return p.one(ctx, q, strings.ToLower(key), key)
}

func (p *Postgres) Find(ctx context.Context, table, id string) ([]byte, error) {
	t, err := tableIdent(table)
	if err != nil {
		return nil, err
	}
	return p.one(ctx, fmt.Sprintf(`SELECT data FROM %s WHERE id = $1`, t), id)
}

func (p *Postgres) one(ctx context.Context, q string, args ...any) ([]byte, error) {
	var data []byte
	err := p.db.QueryRow(ctx, q, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Postgres) Save(ctx context.Context, table string, doc Document) error {
	t, err := tableIdent(table)
	if err != nil {
		return err
	}
	var nameLower *string
	if doc.NameLower != "" {
		nameLower = &doc.NameLower
	}
	_, err = p.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name_lower, data, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (id) DO UPDATE
		SET name_lower = EXCLUDED.name_lower, data = EXCLUDED.data, updated_at = now()`, t),
		doc.ID, nameLower, string(doc.Data),
	)
	return err
}

func (p *Postgres) List(ctx context.Context, table string, filters ...Filter) ([][]byte, error) {
	t, err := tableIdent(table)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	for _, f := range filters {
		args = append(args, strings.Split(f.Path, "."), f.Value)
		where = append(where, fmt.Sprintf("data #>> $%d::text[] = $%d", len(args)-1, len(args)))
	}
	q := fmt.Sprintf(`SELECT data FROM %s`, t)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	rows, err := p.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

func (p *Postgres) Delete(ctx context.Context, table, id string) error {
	t, err := tableIdent(table)
	if err != nil {
		return err
	}
	tag, err := p.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
