package services

import (
	"context"
	"strings"

	"github.com/sansquer77/BF1Homol-sub000/internal/errors"
	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
	"github.com/sansquer77/BF1Homol-sub000/internal/models"
	"github.com/sansquer77/BF1Homol-sub000/internal/repository"
)

// DriverService handles the driver catalog
type DriverService struct {
	log  logger.Logger
	repo repository.DriverRepository
}

// NewDriverService creates a new DriverService
func NewDriverService(log logger.Logger, repo repository.DriverRepository) *DriverService {
	return &DriverService{log: log, repo: repo}
}

// ListDrivers returns every driver, active or not
func (s *DriverService) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	return s.repo.ListDrivers(ctx)
}

// ListActiveDrivers returns the current driver pool
func (s *DriverService) ListActiveDrivers(ctx context.Context) ([]models.Driver, error) {
	return s.repo.ListActiveDrivers(ctx)
}

// CreateDriver adds an active driver
func (s *DriverService) CreateDriver(ctx context.Context, name, constructor string) (int64, error) {
	name, constructor = strings.TrimSpace(name), strings.TrimSpace(constructor)
	if name == "" || constructor == "" {
		return 0, errors.Validation("driver name and constructor are required")
	}
	id, err := s.repo.CreateDriver(ctx, name, constructor)
	if err != nil {
		return 0, err
	}
	s.log.Info("Driver created", "id", id, "name", name, "constructor", constructor)
	return id, nil
}

// UpdateDriver changes a driver's name, constructor or active flag.
// Deactivating removes the driver from the pool for future races only.
func (s *DriverService) UpdateDriver(ctx context.Context, d models.Driver) error {
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Constructor) == "" {
		return errors.Validation("driver name and constructor are required")
	}
	err := s.repo.UpdateDriver(ctx, d)
	if err == repository.ErrNotFound {
		return ErrDriverNotFound
	}
	return err
}
