package services

import (
	"context"
	"fmt"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/ports"
)

// MoodService handles mood/habit entry operations. Entries are keyed by
// date: writing an existing date updates that entry in place.
type MoodService struct {
	moodRepo     ports.MoodRepository
	settingsRepo ports.SettingsRepository
	logger       *logger.Logger
	notify       func()
}

// NewMoodService creates a new mood service. The notifier may be nil.
func NewMoodService(moodRepo ports.MoodRepository, settingsRepo ports.SettingsRepository, appLogger *logger.Logger, notify func()) *MoodService {
	return &MoodService{
		moodRepo:     moodRepo,
		settingsRepo: settingsRepo,
		logger:       appLogger,
		notify:       notify,
	}
}

func (s *MoodService) afterMutation(ctx context.Context) error {
	if err := s.settingsRepo.TouchModified(ctx); err != nil {
		return fmt.Errorf("bump modification clock: %w", err)
	}
	if s.notify != nil {
		s.notify()
	}
	return nil
}

// UpsertEntry writes the entry for the request's date
func (s *MoodService) UpsertEntry(ctx context.Context, req ports.UpsertMoodRequest) (*entities.MoodEntry, error) {
	now := entities.NowLocal()

	entry := &entities.MoodEntry{
		Date:      req.Date,
		Score:     req.Score,
		Note:      req.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.moodRepo.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to upsert mood entry: %w", err)
	}

	if err := s.afterMutation(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Mood entry written", "date", entry.Date, "score", entry.Score)

	return entry, nil
}

// GetEntry retrieves the entry for a date
func (s *MoodService) GetEntry(ctx context.Context, date string) (*entities.MoodEntry, error) {
	entry, err := s.moodRepo.GetByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries retrieves all entries for a year; year 0 lists everything.
func (s *MoodService) ListEntries(ctx context.Context, year int) ([]*entities.MoodEntry, error) {
	if year == 0 {
		entries, err := s.moodRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list mood entries: %w", err)
		}
		return entries, nil
	}

	entries, err := s.moodRepo.ListByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list mood entries: %w", err)
	}
	return entries, nil
}

// DeleteEntry removes the entry for a date
func (s *MoodService) DeleteEntry(ctx context.Context, date string) error {
	if err := s.moodRepo.Delete(ctx, date); err != nil {
		return err
	}

	if err := s.afterMutation(ctx); err != nil {
		return err
	}

	s.logger.Info("Mood entry deleted", "date", date)

	return nil
}
