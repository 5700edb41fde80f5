package projects

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/atelier-erp/atelier/internal/shared"
)

// RepositoryPort defines the data access the service needs.
type RepositoryPort interface {
	Create(ctx context.Context, req CreateProjectRequest) (*Project, error)
	Get(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	CountInvoices(ctx context.Context, projectID int64) (map[string]int64, error)
	CountVariations(ctx context.Context, projectID int64) (map[string]int64, error)
	CountTickets(ctx context.Context, projectID int64) (map[string]int64, error)
	CountApprovals(ctx context.Context, projectID int64) (map[string]int64, error)
}

// Service handles project business logic.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Create validates and persists a project.
func (s *Service) Create(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, req)
}

// Get returns one project.
func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	return s.repo.Get(ctx, id)
}

// List returns all projects.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

// DocumentOverview returns per-kind per-status document counts for a
// project. The four tallies are fetched concurrently and the result is
// cached for the configured TTL.
func (s *Service) DocumentOverview(ctx context.Context, projectID int64) (*Overview, error) {
	if _, err := s.repo.Get(ctx, projectID); err != nil {
		return nil, err
	}

	var overview Overview
	err := s.cache.FetchJSON(ctx, overviewKey(projectID), &overview, func(ctx context.Context) (any, error) {
		result := Overview{ProjectID: projectID}
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			counts, err := s.repo.CountInvoices(ctx, projectID)
			result.Invoices = counts
			return err
		})
		g.Go(func() error {
			counts, err := s.repo.CountVariations(ctx, projectID)
			result.Variations = counts
			return err
		})
		g.Go(func() error {
			counts, err := s.repo.CountTickets(ctx, projectID)
			result.Tickets = counts
			return err
		})
		g.Go(func() error {
			counts, err := s.repo.CountApprovals(ctx, projectID)
			result.Approvals = counts
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return &overview, nil
}
