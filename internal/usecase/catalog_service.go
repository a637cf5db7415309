package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/grid-fantasy/internal/domain/constructor"
	"github.com/riskibarqy/grid-fantasy/internal/domain/driver"
	"github.com/riskibarqy/grid-fantasy/internal/domain/race"
)

// CatalogService serves the admin-curated reference data.
type CatalogService struct {
	driverRepo      driver.Repository
	constructorRepo constructor.Repository
	raceRepo        race.Repository
}

func NewCatalogService(driverRepo driver.Repository, constructorRepo constructor.Repository, raceRepo race.Repository) *CatalogService {
	return &CatalogService{
		driverRepo:      driverRepo,
		constructorRepo: constructorRepo,
		raceRepo:        raceRepo,
	}
}

// ListDrivers returns every driver, or those whose name starts with prefix.
func (s *CatalogService) ListDrivers(ctx context.Context, prefix string) ([]driver.Driver, error) {
	prefix = strings.TrimSpace(prefix)
	var (
		drivers []driver.Driver
		err     error
	)
	if prefix == "" {
		drivers, err = s.driverRepo.List(ctx)
	} else {
		drivers, err = s.driverRepo.ListByNamePrefix(ctx, prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	return drivers, nil
}

func (s *CatalogService) GetDriver(ctx context.Context, driverID string) (driver.Driver, error) {
	driverID = strings.TrimSpace(driverID)
	if driverID == "" {
		return driver.Driver{}, fmt.Errorf("%w: driver id is required", ErrInvalidInput)
	}
	item, exists, err := s.driverRepo.GetByID(ctx, driverID)
	if err != nil {
		return driver.Driver{}, fmt.Errorf("get driver: %w", err)
	}
	if !exists {
		return driver.Driver{}, fmt.Errorf("%w: driver=%s", ErrNotFound, driverID)
	}
	return item, nil
}

func (s *CatalogService) ListConstructors(ctx context.Context) ([]constructor.Team, error) {
	teams, err := s.constructorRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list constructors: %w", err)
	}
	return teams, nil
}

func (s *CatalogService) ListRaces(ctx context.Context) ([]race.Race, error) {
	races, err := s.raceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list races: %w", err)
	}
	return races, nil
}
