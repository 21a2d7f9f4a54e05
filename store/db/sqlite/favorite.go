package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/finder/store"
)

func (d *DB) UpsertFavorite(ctx context.Context, upsert *store.Favorite) (*store.Favorite, error) {
	fields := []string{"id", "name", "cuisine", "address", "opening_hours", "lat", "lon"}
	args := []any{upsert.ID, upsert.Name, upsert.Cuisine, upsert.Address, upsert.OpeningHours, upsert.Lat, upsert.Lon}
	if upsert.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		args = append(args, upsert.CreatedTs)
	}

	stmt := `INSERT INTO favorite (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cuisine = excluded.cuisine,
			address = excluded.address,
			opening_hours = excluded.opening_hours,
			lat = excluded.lat,
			lon = excluded.lon
		RETURNING created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&upsert.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert favorite: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListFavorites(ctx context.Context, find *store.FindFavorite) ([]*store.Favorite, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, name, cuisine, address, opening_hours, lat, lon, created_ts
		FROM favorite
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Favorite, 0)
	for rows.Next() {
		var f store.Favorite
		if err := rows.Scan(&f.ID, &f.Name, &f.Cuisine, &f.Address, &f.OpeningHours, &f.Lat, &f.Lon, &f.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		list = append(list, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) DeleteFavorite(ctx context.Context, delete *store.DeleteFavorite) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM favorite WHERE id = ?", delete.ID); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}
