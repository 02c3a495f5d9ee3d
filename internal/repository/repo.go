package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// GetLogOffset returns the consumed offset for path. ok is false when the
// file has never been recorded.
func (r *Repo) GetLogOffset(ctx context.Context, path string) (offset int64, ok bool, err error) {
	row := r.db.QueryRowContext(ctx, `SELECT byte_offset FROM log_offsets WHERE path = ?`, path)
	if err := row.Scan(&offset); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return offset, true, nil
}

func (r *Repo) SetLogOffset(ctx context.Context, path string, offset int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO log_offsets(path, byte_offset, updated_at) VALUES (?,?,?)
		ON CONFLICT(path) DO UPDATE SET byte_offset=excluded.byte_offset, updated_at=excluded.updated_at`,
		path, offset, time.Now().Unix(),
	)
	return err
}

func (r *Repo) ListLogOffsets(ctx context.Context) ([]LogOffset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path, byte_offset, updated_at FROM log_offsets ORDER BY path ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LogOffset
	for rows.Next() {
		var o LogOffset
		if err := rows.Scan(&o.Path, &o.Offset, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteLogOffset(ctx context.Context, path string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM log_offsets WHERE path=?`, path)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
