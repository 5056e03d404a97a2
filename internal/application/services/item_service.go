package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/ports"
)

// ItemService handles task operations. Every mutation advances the
// modification clock before returning and then fires the injected change
// notifier, which is how auto-sync learns about local edits.
type ItemService struct {
	itemRepo     ports.ItemRepository
	settingsRepo ports.SettingsRepository
	logger       *logger.Logger
	notify       func()
}

// NewItemService creates a new item service. The notifier may be nil.
func NewItemService(itemRepo ports.ItemRepository, settingsRepo ports.SettingsRepository, appLogger *logger.Logger, notify func()) *ItemService {
	return &ItemService{
		itemRepo:     itemRepo,
		settingsRepo: settingsRepo,
		logger:       appLogger,
		notify:       notify,
	}
}

func (s *ItemService) afterMutation(ctx context.Context) error {
	if err := s.settingsRepo.TouchModified(ctx); err != nil {
		return fmt.Errorf("bump modification clock: %w", err)
	}
	if s.notify != nil {
		s.notify()
	}
	return nil
}

// CreateItem creates a new task
func (s *ItemService) CreateItem(ctx context.Context, req ports.CreateItemRequest) (*entities.Item, error) {
	now := entities.NowLocal()

	item := &entities.Item{
		ID:        uuid.NewString(),
		Content:   strings.TrimSpace(req.Content),
		DueDate:   normalizeDate(req.DueDate),
		Note:      req.Note,
		Tags:      req.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	if err := s.afterMutation(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Item created", "item_id", item.ID)

	return item, nil
}

// GetItem retrieves a task by ID
func (s *ItemService) GetItem(ctx context.Context, id string) (*entities.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem updates a task's fields
func (s *ItemService) UpdateItem(ctx context.Context, id string, req ports.UpdateItemRequest) (*entities.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Content != nil {
		item.Content = strings.TrimSpace(*req.Content)
	}
	if req.DueDate != nil {
		item.DueDate = normalizeDate(req.DueDate)
	}
	if req.Note != nil {
		if *req.Note == "" {
			item.Note = nil
		} else {
			item.Note = req.Note
		}
	}
	if req.Tags != nil {
		item.Tags = *req.Tags
		if item.Tags == nil {
			item.Tags = []string{}
		}
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	item.UpdatedAt = entities.NowLocal()

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	if err := s.afterMutation(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Item updated", "item_id", item.ID)

	return item, nil
}

// ToggleDone flips an item between done and open
func (s *ItemService) ToggleDone(ctx context.Context, id string) (*entities.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if item.IsDone() {
		item.DoneAt = nil
	} else {
		now := entities.NowLocal()
		item.DoneAt = &now
	}
	item.UpdatedAt = entities.NowLocal()

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to toggle item: %w", err)
	}

	if err := s.afterMutation(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Item toggled", "item_id", item.ID, "done", item.IsDone())

	return item, nil
}

// DeleteItem deletes a task. Tag references held by the item simply vanish
// with it; tags themselves are never cascaded.
func (s *ItemService) DeleteItem(ctx context.Context, id string) error {
	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.afterMutation(ctx); err != nil {
		return err
	}

	s.logger.Info("Item deleted", "item_id", id)

	return nil
}

// ListItems retrieves tasks with filtering
func (s *ItemService) ListItems(ctx context.Context, filter ports.ItemFilter) ([]*entities.Item, error) {
	items, err := s.itemRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// normalizeDate maps an empty date to nil ("someday").
func normalizeDate(date *string) *string {
	if date == nil || *date == "" {
		return nil
	}
	return date
}
