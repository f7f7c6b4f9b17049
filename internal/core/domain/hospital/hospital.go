package hospital

import (
	"time"

	"github.com/google/uuid"
)

type Hospital struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	City             string    `json:"city" db:"city"`
	Specialty        Specialty `json:"specialty" db:"specialty"`
	Beds             int       `json:"beds" db:"beds"`
	EmergencyService bool      `json:"emergency_service" db:"emergency_service"`
	Rating           float64   `json:"rating" db:"rating"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

type Specialty string

const (
	SpecialtyGeneral     Specialty = "general"
	SpecialtySurgery     Specialty = "surgery"
	SpecialtyCardiology  Specialty = "cardiology"
	SpecialtyDermatology Specialty = "dermatology"
	SpecialtyExotics     Specialty = "exotics"
)

// Hospital domain methods

// AcceptsEmergencies returns true if the hospital runs an emergency service
// and has capacity for walk-ins.
func (h *Hospital) AcceptsEmergencies() bool {
	return h.EmergencyService && h.Beds > 0
}

// Filter narrows hospital listings. Zero values mean "no constraint".
type Filter struct {
	City          string    `json:"city,omitempty"`
	Specialty     Specialty `json:"specialty,omitempty"`
	EmergencyOnly bool      `json:"emergency_only,omitempty"`
	MinRating     float64   `json:"min_rating,omitempty"`
}

// CreateHospitalRequest represents the request to register a new hospital
type CreateHospitalRequest struct {
	Name             string    `json:"name"`
	City             string    `json:"city"`
	Specialty        Specialty `json:"specialty"`
	Beds             int       `json:"beds"`
	EmergencyService bool      `json:"emergency_service"`
	Rating           float64   `json:"rating"`
}

// UpdateHospitalRequest represents the request to update a hospital
type UpdateHospitalRequest struct {
	Name             *string    `json:"name,omitempty"`
	City             *string    `json:"city,omitempty"`
	Specialty        *Specialty `json:"specialty,omitempty"`
	Beds             *int       `json:"beds,omitempty"`
	EmergencyService *bool      `json:"emergency_service,omitempty"`
	Rating           *float64   `json:"rating,omitempty"`
}
