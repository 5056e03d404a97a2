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

// TagService manages the tag list inside the settings record. Removing a
// tag leaves any item references to it dangling on purpose: items render
// unknown tag ids as "no tag".
type TagService struct {
	settingsRepo ports.SettingsRepository
	logger       *logger.Logger
	notify       func()
}

// NewTagService creates a new tag service. The notifier may be nil.
func NewTagService(settingsRepo ports.SettingsRepository, appLogger *logger.Logger, notify func()) *TagService {
	return &TagService{
		settingsRepo: settingsRepo,
		logger:       appLogger,
		notify:       notify,
	}
}

func (s *TagService) afterMutation(ctx context.Context) error {
	if err := s.settingsRepo.TouchModified(ctx); err != nil {
		return fmt.Errorf("bump modification clock: %w", err)
	}
	if s.notify != nil {
		s.notify()
	}
	return nil
}

// ListTags returns all tags
func (s *TagService) ListTags(ctx context.Context) ([]entities.Tag, error) {
	return s.settingsRepo.GetTags(ctx)
}

// AddTag appends a new tag to the list
func (s *TagService) AddTag(ctx context.Context, req ports.TagRequest) (*entities.Tag, error) {
	tag := entities.Tag{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(req.Name),
		Color:    req.Color,
		Deadline: req.Deadline,
	}

	if err := tag.Validate(); err != nil {
		return nil, err
	}

	tags, err := s.settingsRepo.GetTags(ctx)
	if err != nil {
		return nil, err
	}

	tags = append(tags, tag)
	if err := s.settingsRepo.SaveTags(ctx, tags); err != nil {
		return nil, fmt.Errorf("failed to save tags: %w", err)
	}

	if err := s.afterMutation(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Tag added", "tag_id", tag.ID, "name", tag.Name)

	return &tag, nil
}

// UpdateTag edits an existing tag in place
func (s *TagService) UpdateTag(ctx context.Context, id string, req ports.TagRequest) (*entities.Tag, error) {
	tags, err := s.settingsRepo.GetTags(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tags {
		if tags[i].ID != id {
			continue
		}

		tags[i].Name = strings.TrimSpace(req.Name)
		tags[i].Color = req.Color
		tags[i].Deadline = req.Deadline

		if err := tags[i].Validate(); err != nil {
			return nil, err
		}

		if err := s.settingsRepo.SaveTags(ctx, tags); err != nil {
			return nil, fmt.Errorf("failed to save tags: %w", err)
		}

		if err := s.afterMutation(ctx); err != nil {
			return nil, err
		}

		s.logger.Info("Tag updated", "tag_id", id)

		return &tags[i], nil
	}

	return nil, entities.ErrTagNotFound
}

// RemoveTag deletes a tag from the list without touching item references
func (s *TagService) RemoveTag(ctx context.Context, id string) error {
	tags, err := s.settingsRepo.GetTags(ctx)
	if err != nil {
		return err
	}

	kept := tags[:0]
	found := false
	for _, tag := range tags {
		if tag.ID == id {
			found = true
			continue
		}
		kept = append(kept, tag)
	}

	if !found {
		return entities.ErrTagNotFound
	}

	if err := s.settingsRepo.SaveTags(ctx, kept); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}

	if err := s.afterMutation(ctx); err != nil {
		return err
	}

	s.logger.Info("Tag removed", "tag_id", id)

	return nil
}
