package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/database"
	"github.com/dayflow/core/internal/ports"
)

// MoodRepositoryImpl implements the MoodRepository interface
type MoodRepositoryImpl struct {
	db *database.DB
}

// NewMoodRepository creates a new mood entry repository
func NewMoodRepository(db *database.DB) ports.MoodRepository {
	return &MoodRepositoryImpl{db: db}
}

// Upsert writes the entry for its date. The date is the natural key: when a
// row for that date exists it is updated in place and keeps its stored id
// and created_at. The cached year is always recomputed from the date.
func (r *MoodRepositoryImpl) Upsert(ctx context.Context, entry *entities.MoodEntry) error {
	entry.RecomputeYear()

	existing, err := r.GetByDate(ctx, entry.Date)
	if err != nil && !errors.Is(err, entities.ErrMoodEntryNotFound) {
		return err
	}

	if existing != nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt

		query := `
			UPDATE mood_entries
			SET score = ?, note = ?, year = ?, updated_at = ?
			WHERE date = ?`

		if _, err := r.db.DB.ExecContext(ctx, query,
			entry.Score, entry.Note, entry.Year, entry.UpdatedAt, entry.Date,
		); err != nil {
			return fmt.Errorf("update mood entry: %w", err)
		}

		return nil
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO mood_entries (id, date, score, note, year, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := r.db.DB.ExecContext(ctx, query,
		entry.ID, entry.Date, entry.Score, entry.Note,
		entry.Year, entry.CreatedAt, entry.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert mood entry: %w", err)
	}

	return nil
}

func (r *MoodRepositoryImpl) GetByDate(ctx context.Context, date string) (*entities.MoodEntry, error) {
	query := `
		SELECT id, date, score, note, year, created_at, updated_at
		FROM mood_entries
		WHERE date = ?`

	var entry entities.MoodEntry
	err := r.db.DB.GetContext(ctx, &entry, query, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrMoodEntryNotFound
		}
		return nil, fmt.Errorf("get mood entry by date: %w", err)
	}

	return &entry, nil
}

func (r *MoodRepositoryImpl) ListByYear(ctx context.Context, year int) ([]*entities.MoodEntry, error) {
	query := `
		SELECT id, date, score, note, year, created_at, updated_at
		FROM mood_entries
		WHERE year = ?
		ORDER BY date ASC`

	var entries []*entities.MoodEntry
	if err := r.db.DB.SelectContext(ctx, &entries, query, year); err != nil {
		return nil, fmt.Errorf("list mood entries by year: %w", err)
	}

	return entries, nil
}

func (r *MoodRepositoryImpl) List(ctx context.Context) ([]*entities.MoodEntry, error) {
	query := `
		SELECT id, date, score, note, year, created_at, updated_at
		FROM mood_entries
		ORDER BY date ASC`

	var entries []*entities.MoodEntry
	if err := r.db.DB.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list mood entries: %w", err)
	}

	return entries, nil
}

func (r *MoodRepositoryImpl) Delete(ctx context.Context, date string) error {
	result, err := r.db.DB.ExecContext(ctx, `DELETE FROM mood_entries WHERE date = ?`, date)
	if err != nil {
		return fmt.Errorf("delete mood entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete mood entry: %w", err)
	}
	if affected == 0 {
		return entities.ErrMoodEntryNotFound
	}

	return nil
}

// ReplaceAll clears the collection and inserts the given entries inside a
// single transaction.
func (r *MoodRepositoryImpl) ReplaceAll(ctx context.Context, entries []entities.MoodEntry) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM mood_entries`); err != nil {
			return fmt.Errorf("clear mood entries: %w", err)
		}

		query := `
			INSERT INTO mood_entries (id, date, score, note, year, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`

		for i := range entries {
			entry := &entries[i]
			if _, err := tx.ExecContext(ctx, query,
				entry.ID, entry.Date, entry.Score, entry.Note,
				entry.Year, entry.CreatedAt, entry.UpdatedAt,
			); err != nil {
				return fmt.Errorf("insert mood entry %s: %w", entry.Date, err)
			}
		}

		return nil
	})
}
