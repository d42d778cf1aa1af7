// README: Assignment store backed by PostgreSQL; serves booked windows to availability.
package assignment

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tradedispatch/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ActiveForContractorOnDate returns the occupied windows of every pending,
// accepted, or in-progress assignment overlapping the given calendar day.
func (s *Store) ActiveForContractorOnDate(ctx context.Context, contractorID types.ID, day time.Time) ([]Window, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := s.db.Query(ctx, `
		SELECT j.desired_at, j.duration_hours
		FROM assignments a
		JOIN jobs j ON j.id = a.job_id
		WHERE a.contractor_id = $1
		  AND a.status IN ('pending', 'accepted', 'in_progress')
		  AND j.desired_at < $3
		  AND j.desired_at + (j.duration_hours * interval '1 hour') > $2
		ORDER BY j.desired_at`,
		string(contractorID), dayStart, dayEnd,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []Window
	for rows.Next() {
		var start time.Time
		var hours float64
		if err := rows.Scan(&start, &hours); err != nil {
			return nil, err
		}
		windows = append(windows, Window{
			Start:    start,
			Duration: time.Duration(hours * float64(time.Hour)),
		})
	}
	return windows, rows.Err()
}
