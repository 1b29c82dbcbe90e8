package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"churchadmin/internal/database"
	"churchadmin/internal/models"
)

// MemberRegistrationRepository stores family registrations together with their children.
// Children are written in the same transaction as their registration.
type MemberRegistrationRepository struct {
	*RecordRepository[*models.MemberRegistration]
}

// NewMemberRegistrationRepository creates a new member registration repository
func NewMemberRegistrationRepository(db *database.DB) *MemberRegistrationRepository {
	return &MemberRegistrationRepository{newRecordRepository(db, table[*models.MemberRegistration]{
		name: "member_registrations",
		columns: []string{"family_name", "head_of_family", "spouse_name", "marital_status", "phone",
			"email", "address", "zone_number", "unit_name", "date_registered"},
		fields: func(m *models.MemberRegistration) []any {
			return []any{&m.FamilyName, &m.HeadOfFamily, &m.SpouseName, &m.MaritalStatus, &m.Phone,
				&m.Email, &m.Address, &m.ZoneNumber, &m.UnitName, &m.DateRegistered}
		},
		newRow: func() *models.MemberRegistration { return &models.MemberRegistration{} },
	})}
}

// Create inserts the registration and its children
func (r *MemberRegistrationRepository) Create(ctx context.Context, m *models.MemberRegistration) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := r.insert(ctx, tx, m); err != nil {
			return err
		}
		return r.insertChildren(ctx, tx, m)
	})
}

// Restore inserts a registration and its children through q keeping their IDs and timestamps
func (r *MemberRegistrationRepository) Restore(ctx context.Context, q database.DBTX, m *models.MemberRegistration) error {
	if err := r.insertRow(ctx, q, m); err != nil {
		return err
	}
	return r.insertChildren(ctx, q, m)
}

// Update overwrites the registration and replaces its children with m.Children.
// Children keep their IDs when supplied; new rows are assigned one.
func (r *MemberRegistrationRepository) Update(ctx context.Context, m *models.MemberRegistration) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := r.update(ctx, tx, m); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM member_children WHERE registration_id = ?", m.ID); err != nil {
			return fmt.Errorf("failed to clear children: %w", err)
		}
		return r.insertChildren(ctx, tx, m)
	})
}

// Delete removes the registration and its children
func (r *MemberRegistrationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM member_children WHERE registration_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete children: %w", err)
		}
		return r.delete(ctx, tx, id)
	})
}

// Get retrieves a registration with its children, or nil if it does not exist
func (r *MemberRegistrationRepository) Get(ctx context.Context, id string) (*models.MemberRegistration, error) {
	m, err := r.RecordRepository.Get(ctx, id)
	if err != nil || m == nil {
		return m, err
	}
	children, err := r.children(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	m.Children = children[id]
	return m, nil
}

// List returns every registration with its children, newest first
func (r *MemberRegistrationRepository) List(ctx context.Context) ([]*models.MemberRegistration, error) {
	regs, err := r.RecordRepository.List(ctx)
	if err != nil || len(regs) == 0 {
		return regs, err
	}
	ids := make([]string, len(regs))
	for i, m := range regs {
		ids[i] = m.ID
	}
	children, err := r.children(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range regs {
		m.Children = children[m.ID]
	}
	return regs, nil
}

// CountChildren returns the number of children across all registrations
func (r *MemberRegistrationRepository) CountChildren(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member_children").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count children: %w", err)
	}
	return n, nil
}

func (r *MemberRegistrationRepository) insertChildren(ctx context.Context, q database.DBTX, m *models.MemberRegistration) error {
	query := `
		INSERT INTO member_children (id, registration_id, position, full_name, gender, date_of_birth,
			is_baptized, is_confirmed, is_communicant, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range m.Children {
		c := &m.Children[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		_, err := q.ExecContext(ctx, query, c.ID, m.ID, i, c.FullName, c.Gender, c.DateOfBirth,
			c.IsBaptized, c.IsConfirmed, c.IsCommunicant, m.UpdatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert child %q: %w", c.FullName, err)
		}
	}
	return nil
}

// children loads the children of the given registrations keyed by registration ID
func (r *MemberRegistrationRepository) children(ctx context.Context, ids []string) (map[string][]models.Child, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := fmt.Sprintf(`
		SELECT registration_id, id, full_name, gender, date_of_birth, is_baptized, is_confirmed, is_communicant
		FROM member_children
		WHERE registration_id IN (%s)
		ORDER BY registration_id, position
	`, placeholders)

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.Child, len(ids))
	for rows.Next() {
		var regID string
		var c models.Child
		if err := rows.Scan(&regID, &c.ID, &c.FullName, &c.Gender, &c.DateOfBirth,
			&c.IsBaptized, &c.IsConfirmed, &c.IsCommunicant); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		result[regID] = append(result[regID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read children: %w", err)
	}
	for _, id := range ids {
		if result[id] == nil {
			result[id] = []models.Child{}
		}
	}
	return result, nil
}
