package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/database"
	"github.com/dayflow/core/internal/ports"
)

// ItemRepositoryImpl implements the ItemRepository interface
type ItemRepositoryImpl struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) ports.ItemRepository {
	return &ItemRepositoryImpl{db: db}
}

// itemRow is the storage shape; tags are a JSON array column.
type itemRow struct {
	ID        string  `db:"id"`
	Content   string  `db:"content"`
	DueDate   *string `db:"due_date"`
	DoneAt    *string `db:"done_at"`
	Note      *string `db:"note"`
	Tags      string  `db:"tags"`
	CreatedAt string  `db:"created_at"`
	UpdatedAt string  `db:"updated_at"`
}

func (r *itemRow) toEntity() *entities.Item {
	item := &entities.Item{
		ID:        r.ID,
		Content:   r.Content,
		DueDate:   r.DueDate,
		DoneAt:    r.DoneAt,
		Note:      r.Note,
		Tags:      []string{},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	// Tolerate malformed tag payloads; an unreadable list means no tags,
	// not a failed read.
	var tags []string
	if err := json.Unmarshal([]byte(r.Tags), &tags); err == nil && tags != nil {
		item.Tags = tags
	}

	return item
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func (r *ItemRepositoryImpl) Create(ctx context.Context, item *entities.Item) error {
	query := `
		INSERT INTO items (id, content, due_date, done_at, note, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.DB.ExecContext(ctx, query,
		item.ID, item.Content, item.DueDate, item.DoneAt,
		item.Note, encodeTags(item.Tags), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}

	return nil
}

func (r *ItemRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Item, error) {
	query := `
		SELECT id, content, due_date, done_at, note, tags, created_at, updated_at
		FROM items
		WHERE id = ?`

	var row itemRow
	err := r.db.DB.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrItemNotFound
		}
		return nil, fmt.Errorf("get item by id: %w", err)
	}

	return row.toEntity(), nil
}

func (r *ItemRepositoryImpl) Update(ctx context.Context, item *entities.Item) error {
	query := `
		UPDATE items
		SET content = ?, due_date = ?, done_at = ?, note = ?, tags = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.DB.ExecContext(ctx, query,
		item.Content, item.DueDate, item.DoneAt, item.Note,
		encodeTags(item.Tags), item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if affected == 0 {
		return entities.ErrItemNotFound
	}

	return nil
}

func (r *ItemRepositoryImpl) Delete(ctx context.Context, id string) error {
	result, err := r.db.DB.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if affected == 0 {
		return entities.ErrItemNotFound
	}

	return nil
}

func (r *ItemRepositoryImpl) List(ctx context.Context, filter ports.ItemFilter) ([]*entities.Item, error) {
	query := `
		SELECT id, content, due_date, done_at, note, tags, created_at, updated_at
		FROM items`

	var conditions []string
	var args []interface{}

	if filter.DueDate != nil {
		conditions = append(conditions, "due_date = ?")
		args = append(args, *filter.DueDate)
	}
	if filter.Someday {
		conditions = append(conditions, "due_date IS NULL")
	}
	if filter.Done != nil {
		if *filter.Done {
			conditions = append(conditions, "done_at IS NOT NULL")
		} else {
			conditions = append(conditions, "done_at IS NULL")
		}
	}
	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, "(content LIKE ? OR note LIKE ?)")
		pattern := "%" + *filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "created_at"
	switch filter.SortBy {
	case "due_date", "updated_at", "content":
		sortBy = filter.SortBy
	}
	order := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		order = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, order)

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	var rows []itemRow
	if err := r.db.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items := make([]*entities.Item, 0, len(rows))
	for i := range rows {
		item := rows[i].toEntity()
		// Tag filtering happens after decode; tags are an opaque JSON
		// column to sqlite.
		if filter.TagID != nil && !item.HasTag(*filter.TagID) {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (r *ItemRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM items`); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// ReplaceAll clears the collection and inserts the given items inside a
// single transaction, so a concurrent reader never sees the store empty.
func (r *ItemRepositoryImpl) ReplaceAll(ctx context.Context, items []entities.Item) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
			return fmt.Errorf("clear items: %w", err)
		}

		query := `
			INSERT INTO items (id, content, due_date, done_at, note, tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

		for i := range items {
			item := &items[i]
			if _, err := tx.ExecContext(ctx, query,
				item.ID, item.Content, item.DueDate, item.DoneAt,
				item.Note, encodeTags(item.Tags), item.CreatedAt, item.UpdatedAt,
			); err != nil {
				return fmt.Errorf("insert item %s: %w", item.ID, err)
			}
		}

		return nil
	})
}
