package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/parking-gate-control/internal/model"
)

// VehicleRepo reads the registered vehicles list.
type VehicleRepo struct{ DB *sql.DB }

func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{DB: db} }

// List returns up to limit vehicles, most recently seen first; vehicles
// never seen sort last.  A non-empty plate filters by prefix.
func (r *VehicleRepo) List(ctx context.Context, plate string, limit int) ([]model.Vehicle, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, plate, owner_name, note, last_seen, created_at
		   FROM vehicles
		  WHERE (? = '' OR plate LIKE CONCAT(?, '%'))
		  ORDER BY last_seen IS NULL, last_seen DESC, id DESC
		  LIMIT ?`,
		plate, plate, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Vehicle, 0)
	for rows.Next() {
		var (
			v        model.Vehicle
			lastSeen sql.NullTime
		)
		if err := rows.Scan(&v.ID, &v.Plate, &v.OwnerName, &v.Note, &lastSeen, &v.CreatedAt); err != nil {
			return nil, err
		}
		if lastSeen.Valid {
			t := lastSeen.Time
			v.LastSeen = &t
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
