package repository

import (
	"context"
	"fmt"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

// ZonalLeaderRepository stores zonal leaders
type ZonalLeaderRepository struct {
	*RecordRepository[*models.ZonalLeader]
}

// NewZonalLeaderRepository creates a new zonal leader repository
func NewZonalLeaderRepository(db *database.DB) *ZonalLeaderRepository {
	return &ZonalLeaderRepository{newRecordRepository(db, table[*models.ZonalLeader]{
		name: "zonal_leaders",
		columns: []string{"full_name", "gender", "zone_number", "zone_name", "phone", "email",
			"address", "date_appointed"},
		fields: func(z *models.ZonalLeader) []any {
			return []any{&z.FullName, &z.Gender, &z.ZoneNumber, &z.ZoneName, &z.Phone, &z.Email,
				&z.Address, &z.DateAppointed}
		},
		newRow: func() *models.ZonalLeader { return &models.ZonalLeader{} },
	})}
}

// ListByZone returns the leaders whose zone number matches zone, ignoring case
func (r *ZonalLeaderRepository) ListByZone(ctx context.Context, zone string) ([]*models.ZonalLeader, error) {
	return r.listWhere(ctx, "LOWER(zone_number) = LOWER(?)", zone)
}

// CountUnitLeaders returns how many unit leaders reference the zonal leader
func (r *ZonalLeaderRepository) CountUnitLeaders(ctx context.Context, leaderID string) (int, error) {
	var n int
	query := "SELECT COUNT(*) FROM unit_leaders WHERE zonal_leader_id = ?"
	if err := r.db.QueryRowContext(ctx, query, leaderID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unit leaders: %w", err)
	}
	return n, nil
}

// UnitLeaderRepository stores unit leaders
type UnitLeaderRepository struct {
	*RecordRepository[*models.UnitLeader]
}

// NewUnitLeaderRepository creates a new unit leader repository
func NewUnitLeaderRepository(db *database.DB) *UnitLeaderRepository {
	return &UnitLeaderRepository{newRecordRepository(db, table[*models.UnitLeader]{
		name: "unit_leaders",
		columns: []string{"full_name", "gender", "unit_name", "zone_number", "zonal_leader_id",
			"phone", "email", "date_appointed"},
		fields: func(u *models.UnitLeader) []any {
			return []any{&u.FullName, &u.Gender, &u.UnitName, &u.ZoneNumber, &u.ZonalLeaderID,
				&u.Phone, &u.Email, &u.DateAppointed}
		},
		newRow: func() *models.UnitLeader { return &models.UnitLeader{} },
	})}
}

// ListByZonalLeader returns the unit leaders reporting to a zonal leader
func (r *UnitLeaderRepository) ListByZonalLeader(ctx context.Context, leaderID string) ([]*models.UnitLeader, error) {
	return r.listWhere(ctx, "zonal_leader_id = ?", leaderID)
}
