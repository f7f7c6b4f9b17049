package pet

import (
	"time"

	"github.com/google/uuid"
)

type Pet struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Species    Species    `json:"species" db:"species"`
	Breed      string     `json:"breed" db:"breed"`
	OwnerEmail string     `json:"owner_email" db:"owner_email"`
	BirthDate  time.Time  `json:"birth_date" db:"birth_date"`
	Vaccinated bool       `json:"vaccinated" db:"vaccinated"`
	HospitalID *uuid.UUID `json:"hospital_id,omitempty" db:"hospital_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

type Species string

const (
	SpeciesDog     Species = "dog"
	SpeciesCat     Species = "cat"
	SpeciesBird    Species = "bird"
	SpeciesReptile Species = "reptile"
	SpeciesRabbit  Species = "rabbit"
)

// Pet domain methods

// AgeAt returns the pet's age in whole years at the given time.
func (p *Pet) AgeAt(t time.Time) int {
	years := t.Year() - p.BirthDate.Year()
	if t.YearDay() < p.BirthDate.YearDay() {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// NeedsVaccination returns true if the pet has no vaccination on record.
func (p *Pet) NeedsVaccination() bool {
	return !p.Vaccinated
}

// Filter narrows pet listings. Zero values mean "no constraint".
type Filter struct {
	Species        Species    `json:"species,omitempty"`
	HospitalID     *uuid.UUID `json:"hospital_id,omitempty"`
	VaccinatedOnly bool       `json:"vaccinated_only,omitempty"`
	OwnerEmail     string     `json:"owner_email,omitempty"`
}

// CreatePetRequest represents the request to register a new pet
type CreatePetRequest struct {
	Name       string     `json:"name"`
	Species    Species    `json:"species"`
	Breed      string     `json:"breed"`
	OwnerEmail string     `json:"owner_email"`
	BirthDate  time.Time  `json:"birth_date"`
	Vaccinated bool       `json:"vaccinated"`
	HospitalID *uuid.UUID `json:"hospital_id,omitempty"`
}

// UpdatePetRequest represents the request to update a pet
type UpdatePetRequest struct {
	Name       *string    `json:"name,omitempty"`
	Species    *Species   `json:"species,omitempty"`
	Breed      *string    `json:"breed,omitempty"`
	OwnerEmail *string    `json:"owner_email,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Vaccinated *bool      `json:"vaccinated,omitempty"`
	HospitalID *uuid.UUID `json:"hospital_id,omitempty"`
}
