package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vetcloud/vetcare-platform/internal/core/domain/pet"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/db"
)

// PetRepository implements the pet repository interface
type PetRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewPetRepository creates a new pet repository
func NewPetRepository(database *db.Database, logger *logrus.Logger) ports.PetRepository {
	return &PetRepository{
		db:     database,
		logger: logger,
	}
}

// Create registers a new pet
func (r *PetRepository) Create(ctx context.Context, p *pet.Pet) error {
	query := `
		INSERT INTO pets (id, name, species, breed, owner_email, birth_date, vaccinated, hospital_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.DB.ExecContext(ctx, query,
		p.ID, p.Name, p.Species, p.Breed, p.OwnerEmail, p.BirthDate, p.Vaccinated, p.HospitalID)
	if err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}

	return nil
}

// GetByID retrieves a pet by ID
func (r *PetRepository) GetByID(ctx context.Context, id uuid.UUID) (*pet.Pet, error) {
	var p pet.Pet

	query := `
		SELECT id, name, species, breed, owner_email, birth_date, vaccinated, hospital_id, created_at, updated_at
		FROM pets
		WHERE id = $1`

	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Species, &p.Breed, &p.OwnerEmail, &p.BirthDate,
		&p.Vaccinated, &p.HospitalID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("pet not found")
		}
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}

	return &p, nil
}

// Update updates an existing pet
func (r *PetRepository) Update(ctx context.Context, p *pet.Pet) error {
	query := `
		UPDATE pets
		SET name = $2, species = $3, breed = $4, owner_email = $5, birth_date = $6, vaccinated = $7, hospital_id = $8, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query,
		p.ID, p.Name, p.Species, p.Breed, p.OwnerEmail, p.BirthDate, p.Vaccinated, p.HospitalID)
	if err != nil {
		return fmt.Errorf("failed to update pet: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("pet not found")
	}

	return nil
}

// Delete removes a pet
func (r *PetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM pets WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete pet: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("pet not found")
	}

	return nil
}

// List retrieves pets matching the filter, with pagination
func (r *PetRepository) List(ctx context.Context, filter *pet.Filter, limit, offset int) ([]*pet.Pet, error) {
	where, args := petFilterClause(filter)
	query := fmt.Sprintf(`
		SELECT id, name, species, breed, owner_email, birth_date, vaccinated, hospital_id, created_at, updated_at
		FROM pets%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	defer rows.Close()

	var pets []*pet.Pet
	for rows.Next() {
		p := &pet.Pet{}
		err := rows.Scan(
			&p.ID, &p.Name, &p.Species, &p.Breed, &p.OwnerEmail, &p.BirthDate,
			&p.Vaccinated, &p.HospitalID, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pet: %w", err)
		}
		pets = append(pets, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pets: %w", err)
	}

	return pets, nil
}

// Count returns the number of pets matching the filter
func (r *PetRepository) Count(ctx context.Context, filter *pet.Filter) (int, error) {
	where, args := petFilterClause(filter)

	var count int
	query := `SELECT COUNT(*) FROM pets` + where

	err := r.db.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count pets: %w", err)
	}

	return count, nil
}

// petFilterClause renders the filter as a WHERE clause with positional args
// starting at $1. Zero-value fields add no condition.
func petFilterClause(filter *pet.Filter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []any
	if filter.Species != "" {
		args = append(args, filter.Species)
		conds = append(conds, fmt.Sprintf("species = $%d", len(args)))
	}
	if filter.HospitalID != nil {
		args = append(args, *filter.HospitalID)
		conds = append(conds, fmt.Sprintf("hospital_id = $%d", len(args)))
	}
	if filter.VaccinatedOnly {
		conds = append(conds, "vaccinated = TRUE")
	}
	if filter.OwnerEmail != "" {
		args = append(args, filter.OwnerEmail)
		conds = append(conds, fmt.Sprintf("owner_email = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
