package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vetcloud/vetcare-platform/internal/core/domain/pet"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
)

type PetService struct {
	repo         ports.PetRepository
	hospitalRepo ports.HospitalRepository
	logger       *logrus.Logger
}

func NewPetService(repo ports.PetRepository, hospitalRepo ports.HospitalRepository, logger *logrus.Logger) ports.PetService {
	return &PetService{
		repo:         repo,
		hospitalRepo: hospitalRepo,
		logger:       logger,
	}
}

func (s *PetService) CreatePet(ctx context.Context, req *pet.CreatePetRequest) (*pet.Pet, error) {
	if req.BirthDate.After(time.Now()) {
		return nil, fmt.Errorf("birth date cannot be in the future")
	}
	if req.HospitalID != nil {
		if _, err := s.hospitalRepo.GetByID(ctx, *req.HospitalID); err != nil {
			return nil, fmt.Errorf("hospital %s not found", req.HospitalID)
		}
	}

	p := &pet.Pet{
		ID:         uuid.New(),
		Name:       req.Name,
		Species:    req.Species,
		Breed:      req.Breed,
		OwnerEmail: req.OwnerEmail,
		BirthDate:  req.BirthDate,
		Vaccinated: req.Vaccinated,
		HospitalID: req.HospitalID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create pet: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"pet_id": p.ID, "species": p.Species}).Info("pet registered")
	return p, nil
}

func (s *PetService) GetPet(ctx context.Context, id uuid.UUID) (*pet.Pet, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PetService) UpdatePet(ctx context.Context, id uuid.UUID, req *pet.UpdatePetRequest) (*pet.Pet, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update fields if provided
	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Species != nil {
		existing.Species = *req.Species
	}
	if req.Breed != nil {
		existing.Breed = *req.Breed
	}
	if req.OwnerEmail != nil {
		existing.OwnerEmail = *req.OwnerEmail
	}
	if req.BirthDate != nil {
		if req.BirthDate.After(time.Now()) {
			return nil, fmt.Errorf("birth date cannot be in the future")
		}
		existing.BirthDate = *req.BirthDate
	}
	if req.Vaccinated != nil {
		existing.Vaccinated = *req.Vaccinated
	}
	if req.HospitalID != nil {
		if _, err := s.hospitalRepo.GetByID(ctx, *req.HospitalID); err != nil {
			return nil, fmt.Errorf("hospital %s not found", req.HospitalID)
		}
		existing.HospitalID = req.HospitalID
	}

	existing.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update pet: %w", err)
	}

	return existing, nil
}

func (s *PetService) DeletePet(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *PetService) ListPets(ctx context.Context, filter *pet.Filter, limit, offset int) ([]*pet.Pet, int, error) {
	pets, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return pets, count, nil
}
