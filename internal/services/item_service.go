// Package services contains business logic.
package services

import (
	"context"

	"github.com/itemhub/itemhub/internal/analytics"
	"github.com/itemhub/itemhub/internal/metrics"
	"github.com/itemhub/itemhub/internal/models"
	"github.com/itemhub/itemhub/internal/repository"
	"github.com/itemhub/itemhub/internal/validation"
)

// ItemInput carries the decoded item payload. Fields are pointers so that
// absent fields can be told apart from empty strings.
type ItemInput struct {
	Title       *string
	Description *string
}

// ItemStats summarizes view activity for an item.
type ItemStats struct {
	ItemID       int64 `json:"item_id"`
	ViewCount    int64 `json:"view_count"`
	PendingViews int64 `json:"pending_views"`
}

// ItemService defines the interface for item operations.
type ItemService interface {
	Create(ctx context.Context, input ItemInput, ownerID int64) (*models.Item, error)
	Get(ctx context.Context, id int64) (*models.Item, error)
	List(ctx context.Context, opts repository.ListOptions) ([]*models.Item, error)
	Update(ctx context.Context, id int64, input ItemInput) (*models.Item, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, id int64) (*ItemStats, error)
}

// ItemServiceImpl implements ItemService.
type ItemServiceImpl struct {
	repo    repository.ItemRepository
	counter *analytics.ViewCounter
}

// NewItemService creates a new ItemService instance.
// counter may be nil, in which case views are not recorded.
func NewItemService(repo repository.ItemRepository, counter *analytics.ViewCounter) *ItemServiceImpl {
	return &ItemServiceImpl{
		repo:    repo,
		counter: counter,
	}
}

// validateInput checks the payload field by field, title before description,
// and returns an ordered list of failures.
func validateInput(input ItemInput) validation.Errors {
	var errs validation.Errors

	if title, ok := validation.RequiredString(&errs, "title", input.Title); ok {
		validation.BoundedString(&errs, "title", title, models.MaxTitleLength)
	}
	if description, ok := validation.RequiredString(&errs, "description", input.Description); ok {
		validation.BoundedString(&errs, "description", description, models.MaxDescriptionLength)
	}

	return errs
}

// Create validates the payload and stores a new item for the owner.
func (s *ItemServiceImpl) Create(ctx context.Context, input ItemInput, ownerID int64) (*models.Item, error) {
	if errs := validateInput(input); len(errs) > 0 {
		return nil, errs
	}
	if ownerID == 0 {
		ownerID = models.AnonymousOwnerID
	}

	item, err := s.repo.Create(ctx, &models.ItemCreate{
		Title:       *input.Title,
		Description: *input.Description,
		OwnerID:     ownerID,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordItemCreated()
	return item, nil
}

// Get retrieves an item and records the view.
func (s *ItemServiceImpl) Get(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.counter != nil {
		s.counter.RecordView(id)
	}
	metrics.RecordItemView()

	return item, nil
}

// List retrieves items, newest first.
func (s *ItemServiceImpl) List(ctx context.Context, opts repository.ListOptions) ([]*models.Item, error) {
	return s.repo.List(ctx, opts)
}

// Update validates the payload and replaces the item's mutable fields.
func (s *ItemServiceImpl) Update(ctx context.Context, id int64, input ItemInput) (*models.Item, error) {
	if errs := validateInput(input); len(errs) > 0 {
		return nil, errs
	}

	return s.repo.Update(ctx, id, &models.ItemUpdate{
		Title:       *input.Title,
		Description: *input.Description,
	})
}

// Delete removes an item.
func (s *ItemServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Stats returns view statistics for an item, including views buffered but
// not yet flushed to storage.
func (s *ItemServiceImpl) Stats(ctx context.Context, id int64) (*ItemStats, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &ItemStats{
		ItemID:    item.ID,
		ViewCount: item.ViewCount,
	}
	if s.counter != nil {
		stats.PendingViews = s.counter.GetPendingStats()[id]
	}

	return stats, nil
}
