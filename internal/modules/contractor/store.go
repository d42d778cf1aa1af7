// README: Contractor store backed by PostgreSQL (read-only queries for the recommendation core).
package contractor

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradedispatch/internal/types"
)

var ErrNotFound = errors.New("contractor not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) GetByID(ctx context.Context, id types.ID) (*Contractor, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, lat, lng, trade,
		       work_start_hour, work_start_minute, work_end_hour, work_end_minute,
		       rating, review_count, active
		FROM contractors
		WHERE id = $1`, string(id),
	)

	var c Contractor
	var rating *float64
	err := row.Scan(
		&c.ID, &c.Name, &c.Location.Lat, &c.Location.Lng, &c.Trade,
		&c.WorkStart.Hour, &c.WorkStart.Minute, &c.WorkEnd.Hour, &c.WorkEnd.Minute,
		&rating, &c.ReviewCount, &c.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Rating = rating
	return &c, nil
}

// ActiveByTrade returns every active contractor in the trade, ordered by id.
func (s *Store) ActiveByTrade(ctx context.Context, trade Trade) ([]Contractor, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, lat, lng, trade,
		       work_start_hour, work_start_minute, work_end_hour, work_end_minute,
		       rating, review_count, active
		FROM contractors
		WHERE trade = $1 AND active = TRUE
		ORDER BY id`, string(trade),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contractor
	for rows.Next() {
		var c Contractor
		var rating *float64
		err := rows.Scan(
			&c.ID, &c.Name, &c.Location.Lat, &c.Location.Lng, &c.Trade,
			&c.WorkStart.Hour, &c.WorkStart.Minute, &c.WorkEnd.Hour, &c.WorkEnd.Minute,
			&rating, &c.ReviewCount, &c.Active,
		)
		if err != nil {
			return nil, err
		}
		c.Rating = rating
		out = append(out, c)
	}
	return out, rows.Err()
}

// DispatcherCuratedList returns the contractor ids on the dispatcher's
// personally maintained list. An empty result is valid.
func (s *Store) DispatcherCuratedList(ctx context.Context, dispatcherID types.ID) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT contractor_id FROM dispatcher_contractors
		WHERE dispatcher_id = $1
		ORDER BY contractor_id`, string(dispatcherID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, types.ID(id))
	}
	return ids, rows.Err()
}
