package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vetcloud/vetcare-platform/internal/core/domain/hospital"
)

// HospitalRepository defines the interface for hospital data operations
type HospitalRepository interface {
	Create(ctx context.Context, h *hospital.Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
	Update(ctx context.Context, h *hospital.Hospital) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *hospital.Filter, limit, offset int) ([]*hospital.Hospital, error)
	Count(ctx context.Context, filter *hospital.Filter) (int, error)
	Search(ctx context.Context, query string, limit int) ([]*hospital.Hospital, error)
}

// HospitalService defines the interface for hospital business logic
type HospitalService interface {
	CreateHospital(ctx context.Context, req *hospital.CreateHospitalRequest) (*hospital.Hospital, error)
	GetHospital(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
	UpdateHospital(ctx context.Context, id uuid.UUID, req *hospital.UpdateHospitalRequest) (*hospital.Hospital, error)
	DeleteHospital(ctx context.Context, id uuid.UUID) error
	ListHospitals(ctx context.Context, filter *hospital.Filter, limit, offset int) ([]*hospital.Hospital, int, error)
	SearchHospitals(ctx context.Context, query string, limit int) ([]*hospital.Hospital, error)
}
