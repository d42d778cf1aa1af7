// README: Job store backed by PostgreSQL.
package job

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradedispatch/internal/types"
)

var ErrNotFound = errors.New("job not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetByID(ctx context.Context, id types.ID) (*Job, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, trade, lat, lng, desired_at, duration_hours
		FROM jobs
		WHERE id = $1`, string(id),
	)

	var j Job
	err := row.Scan(&j.ID, &j.Trade, &j.Location.Lat, &j.Location.Lng, &j.DesiredAt, &j.DurationHours)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}
