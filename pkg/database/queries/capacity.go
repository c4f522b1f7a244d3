package queries

import (
	"context"
	"database/sql"

	"github.com/OldStager01/pool-occupancy/internal/capacity"
	"github.com/OldStager01/pool-occupancy/pkg/models"
)

type CapacityRepository struct {
	db *sql.DB
}

func NewCapacityRepository(db *sql.DB) *CapacityRepository {
	return &CapacityRepository{db: db}
}

// Load reads every stored slot into a table. Slots missing from the database are
// answered by fallback.
func (r *CapacityRepository) Load(ctx context.Context, fallback capacity.Table) (*capacity.Slots, error) {
	query := `SELECT day, hour, capacity FROM pool_capacity ORDER BY day, hour`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := capacity.NewSlots(fallback)
	for rows.Next() {
		var day, hour, c int
		if err := rows.Scan(&day, &hour, &c); err != nil {
			return nil, err
		}
		slots.Set(models.Day(day), hour, c)
	}

	return slots, rows.Err()
}

func (r *CapacityRepository) Upsert(ctx context.Context, day models.Day, hour, maximum int) error {
	query := `
		INSERT INTO pool_capacity (day, hour, capacity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (day, hour) DO UPDATE
		SET capacity = EXCLUDED.capacity, updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, int(day), hour, maximum)
	return err
}
