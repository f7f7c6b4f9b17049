package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vetcloud/vetcare-platform/internal/core/domain/hospital"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/db"
)

// HospitalRepository implements the hospital repository interface
type HospitalRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewHospitalRepository creates a new hospital repository
func NewHospitalRepository(database *db.Database, logger *logrus.Logger) ports.HospitalRepository {
	return &HospitalRepository{
		db:     database,
		logger: logger,
	}
}

// Create registers a new hospital
func (r *HospitalRepository) Create(ctx context.Context, h *hospital.Hospital) error {
	query := `
		INSERT INTO hospitals (id, name, city, specialty, beds, emergency_service, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.DB.ExecContext(ctx, query,
		h.ID, h.Name, h.City, h.Specialty, h.Beds, h.EmergencyService, h.Rating)
	if err != nil {
		return fmt.Errorf("failed to create hospital: %w", err)
	}

	return nil
}

// GetByID retrieves a hospital by ID
func (r *HospitalRepository) GetByID(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error) {
	var h hospital.Hospital

	query := `
		SELECT id, name, city, specialty, beds, emergency_service, rating, created_at, updated_at
		FROM hospitals
		WHERE id = $1`

	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&h.ID, &h.Name, &h.City, &h.Specialty, &h.Beds, &h.EmergencyService,
		&h.Rating, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("hospital not found")
		}
		return nil, fmt.Errorf("failed to get hospital: %w", err)
	}

	return &h, nil
}

// Update updates an existing hospital
func (r *HospitalRepository) Update(ctx context.Context, h *hospital.Hospital) error {
	query := `
		UPDATE hospitals
		SET name = $2, city = $3, specialty = $4, beds = $5, emergency_service = $6, rating = $7, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query,
		h.ID, h.Name, h.City, h.Specialty, h.Beds, h.EmergencyService, h.Rating)
	if err != nil {
		return fmt.Errorf("failed to update hospital: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("hospital not found")
	}

	return nil
}

// Delete removes a hospital
func (r *HospitalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM hospitals WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete hospital: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("hospital not found")
	}

	return nil
}

// List retrieves hospitals matching the filter, with pagination
func (r *HospitalRepository) List(ctx context.Context, filter *hospital.Filter, limit, offset int) ([]*hospital.Hospital, error) {
	where, args := hospitalFilterClause(filter)
	query := fmt.Sprintf(`
		SELECT id, name, city, specialty, beds, emergency_service, rating, created_at, updated_at
		FROM hospitals%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list hospitals: %w", err)
	}
	defer rows.Close()

	var hospitals []*hospital.Hospital
	for rows.Next() {
		h := &hospital.Hospital{}
		err := rows.Scan(
			&h.ID, &h.Name, &h.City, &h.Specialty, &h.Beds, &h.EmergencyService,
			&h.Rating, &h.CreatedAt, &h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hospital: %w", err)
		}
		hospitals = append(hospitals, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hospitals: %w", err)
	}

	return hospitals, nil
}

// Count returns the number of hospitals matching the filter
func (r *HospitalRepository) Count(ctx context.Context, filter *hospital.Filter) (int, error) {
	where, args := hospitalFilterClause(filter)

	var count int
	query := `SELECT COUNT(*) FROM hospitals` + where

	err := r.db.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count hospitals: %w", err)
	}

	return count, nil
}

// Search finds hospitals whose name, city or specialty contains the query,
// best rated first
func (r *HospitalRepository) Search(ctx context.Context, query string, limit int) ([]*hospital.Hospital, error) {
	sqlQuery := `
		SELECT id, name, city, specialty, beds, emergency_service, rating, created_at, updated_at
		FROM hospitals
		WHERE name ILIKE $1 OR city ILIKE $1 OR specialty ILIKE $1
		ORDER BY rating DESC, name ASC
		LIMIT $2`

	rows, err := r.db.DB.QueryContext(ctx, sqlQuery, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search hospitals: %w", err)
	}
	defer rows.Close()

	var hospitals []*hospital.Hospital
	for rows.Next() {
		h := &hospital.Hospital{}
		err := rows.Scan(
			&h.ID, &h.Name, &h.City, &h.Specialty, &h.Beds, &h.EmergencyService,
			&h.Rating, &h.CreatedAt, &h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hospital: %w", err)
		}
		hospitals = append(hospitals, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hospitals: %w", err)
	}

	return hospitals, nil
}

// hospitalFilterClause renders the filter as a WHERE clause with positional
// args starting at $1. Zero-value fields add no condition.
func hospitalFilterClause(filter *hospital.Filter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []any
	if filter.City != "" {
		args = append(args, filter.City)
		conds = append(conds, fmt.Sprintf("city = $%d", len(args)))
	}
	if filter.Specialty != "" {
		args = append(args, filter.Specialty)
		conds = append(conds, fmt.Sprintf("specialty = $%d", len(args)))
	}
	if filter.EmergencyOnly {
		conds = append(conds, "emergency_service = TRUE")
	}
	if filter.MinRating > 0 {
		args = append(args, filter.MinRating)
		conds = append(conds, fmt.Sprintf("rating >= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
