package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vetcloud/vetcare-platform/internal/core/domain/hospital"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type HospitalService struct {
	repo   ports.HospitalRepository
	logger *logrus.Logger
}

func NewHospitalService(repo ports.HospitalRepository, logger *logrus.Logger) ports.HospitalService {
	return &HospitalService{
		repo:   repo,
		logger: logger,
	}
}

func (s *HospitalService) CreateHospital(ctx context.Context, req *hospital.CreateHospitalRequest) (*hospital.Hospital, error) {
	if req.Rating < 0 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 0 and 5")
	}
	if req.Beds < 0 {
		return nil, fmt.Errorf("beds cannot be negative")
	}

	h := &hospital.Hospital{
		ID:               uuid.New(),
		Name:             req.Name,
		City:             req.City,
		Specialty:        req.Specialty,
		Beds:             req.Beds,
		EmergencyService: req.EmergencyService,
		Rating:           req.Rating,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if h.Specialty == "" {
		h.Specialty = hospital.SpecialtyGeneral
	}

	if err := s.repo.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to create hospital: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"hospital_id": h.ID, "city": h.City}).Info("hospital registered")
	return h, nil
}

func (s *HospitalService) GetHospital(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *HospitalService) UpdateHospital(ctx context.Context, id uuid.UUID, req *hospital.UpdateHospitalRequest) (*hospital.Hospital, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update fields if provided
	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.City != nil {
		existing.City = *req.City
	}
	if req.Specialty != nil {
		existing.Specialty = *req.Specialty
	}
	if req.Beds != nil {
		if *req.Beds < 0 {
			return nil, fmt.Errorf("beds cannot be negative")
		}
		existing.Beds = *req.Beds
	}
	if req.EmergencyService != nil {
		existing.EmergencyService = *req.EmergencyService
	}
	if req.Rating != nil {
		if *req.Rating < 0 || *req.Rating > 5 {
			return nil, fmt.Errorf("rating must be between 0 and 5")
		}
		existing.Rating = *req.Rating
	}

	existing.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update hospital: %w", err)
	}

	return existing, nil
}

func (s *HospitalService) DeleteHospital(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *HospitalService) ListHospitals(ctx context.Context, filter *hospital.Filter, limit, offset int) ([]*hospital.Hospital, int, error) {
	hospitals, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return hospitals, count, nil
}

func (s *HospitalService) SearchHospitals(ctx context.Context, query string, limit int) ([]*hospital.Hospital, error) {
	// Matching is case-insensitive, so normalizing here keeps equal queries
	// on one cache key.
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	return s.repo.Search(ctx, query, limit)
}
