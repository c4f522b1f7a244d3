package queries

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/OldStager01/pool-occupancy/pkg/database"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

type ReadingsRepository struct {
	db *sql.DB
}

func NewReadingsRepository(db *sql.DB) *ReadingsRepository {
	return &ReadingsRepository{db: db}
}

func (r *ReadingsRepository) ReadingsForWeek(ctx context.Context, weekID string) ([]models.OccupancyReading, error) {
	query := `
		SELECT id, recorded_at, day, hour, occupancy
		FROM occupancy_readings
		WHERE week_id = $1
		ORDER BY recorded_at ASC`

	rows, err := r.db.QueryContext(ctx, query, weekID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.OccupancyReading
	for rows.Next() {
		var rd models.OccupancyReading
		var day int
		if err := rows.Scan(&rd.ID, &rd.Timestamp, &day, &rd.Hour, &rd.Occupancy); err != nil {
			return nil, err
		}
		rd.Day = models.Day(day)
		readings = append(readings, rd)
	}

	return readings, rows.Err()
}

// InsertBatch stores all readings for a week in one transaction. Readings without
// an id get a fresh one; rows already present are left untouched.
func (r *ReadingsRepository) InsertBatch(ctx context.Context, weekID string, readings []models.OccupancyReading) error {
	if len(readings) == 0 {
		return nil
	}

	query := `
		INSERT INTO occupancy_readings (id, week_id, recorded_at, day, hour, occupancy)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	return database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, rd := range readings {
			id := rd.ID
			if id == "" {
				id = models.NewUUID()
			}
			if _, err := stmt.ExecContext(ctx, id, weekID, rd.Timestamp, int(rd.Day), rd.Hour, rd.Occupancy); err != nil {
				return fmt.Errorf("failed to insert reading: %w", err)
			}
		}
		return nil
	})
}
