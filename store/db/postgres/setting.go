package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/finder/store"
)

func (d *DB) UpsertSetting(ctx context.Context, upsert *store.Setting) (*store.Setting, error) {
	stmt := `INSERT INTO setting (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_ts = EXTRACT(EPOCH FROM NOW())
		RETURNING updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, upsert.Key, upsert.Value).Scan(&upsert.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert setting: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListSettings(ctx context.Context, find *store.FindSetting) ([]*store.Setting, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.Key; v != nil {
		where, args = append(where, "key = "+placeholder(len(args)+1)), append(args, *v)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT key, value, updated_ts FROM setting WHERE `+strings.Join(where, " AND ")+` ORDER BY key`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Setting, 0)
	for rows.Next() {
		var s store.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		list = append(list, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) DeleteSetting(ctx context.Context, delete *store.DeleteSetting) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM setting WHERE key = $1", delete.Key); err != nil {
		return fmt.Errorf("failed to delete setting: %w", err)
	}
	return nil
}
