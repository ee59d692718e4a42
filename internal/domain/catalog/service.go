package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service implements menu administration on top of a Repository.
type Service struct {
	repo Repository
}

// NewService creates a catalog Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every pizza on the menu.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list pizzas")
	}
	return items, nil
}

// Snapshot loads the current menu as an immutable Snapshot.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap, err := LoadSnapshot(ctx, s.repo)
	if err != nil {
		return nil, errors.Wrap(err, "load snapshot")
	}
	return snap, nil
}

// Get returns one pizza by id.
func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get pizza")
	}
	return item, nil
}

// Create validates item, assigns it a fresh id and stores it.
func (s *Service) Create(ctx context.Context, item Item) (*Item, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item = item.clone()
	item.ID = uuid.New().String()
	if err := s.repo.Create(ctx, &item); err != nil {
		return nil, errors.Wrap(err, "create pizza")
	}
	return &item, nil
}

// Update replaces the stored pizza with the given id.
func (s *Service) Update(ctx context.Context, id string, item Item) (*Item, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	item = item.clone()
	item.ID = id
	if err := s.repo.Update(ctx, &item); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "update pizza")
	}
	return &item, nil
}

// Delete removes the pizza with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "delete pizza")
	}
	return nil
}
