package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vetcloud/vetcare-platform/internal/core/domain/pet"
)

// PetRepository defines the interface for pet data operations
type PetRepository interface {
	Create(ctx context.Context, p *pet.Pet) error
	GetByID(ctx context.Context, id uuid.UUID) (*pet.Pet, error)
	Update(ctx context.Context, p *pet.Pet) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *pet.Filter, limit, offset int) ([]*pet.Pet, error)
	Count(ctx context.Context, filter *pet.Filter) (int, error)
}

// PetService defines the interface for pet business logic
type PetService interface {
	CreatePet(ctx context.Context, req *pet.CreatePetRequest) (*pet.Pet, error)
	GetPet(ctx context.Context, id uuid.UUID) (*pet.Pet, error)
	UpdatePet(ctx context.Context, id uuid.UUID, req *pet.UpdatePetRequest) (*pet.Pet, error)
	DeletePet(ctx context.Context, id uuid.UUID) error
	ListPets(ctx context.Context, filter *pet.Filter, limit, offset int) ([]*pet.Pet, int, error)
}
