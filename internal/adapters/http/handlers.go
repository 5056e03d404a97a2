package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dayflow/core/internal/application/services"
	"github.com/dayflow/core/internal/domain/entities"
	"github.com/dayflow/core/internal/infrastructure/logger"
	"github.com/dayflow/core/internal/ports"
)

// MessageResponse is a simple message payload
type MessageResponse struct {
	Message string `json:"message"`
}

// ItemHandler handles task-related requests
type ItemHandler struct {
	itemService *services.ItemService
	logger      *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(itemService *services.ItemService, logger *logger.Logger) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		logger:      logger,
	}
}

// ListItems handles listing tasks with filters
func (h *ItemHandler) ListItems(c echo.Context) error {
	filter := ports.ItemFilter{}

	if due := c.QueryParam("dueDate"); due != "" {
		filter.DueDate = &due
	}
	if c.QueryParam("someday") == "true" {
		filter.Someday = true
	}
	if done := c.QueryParam("done"); done != "" {
		v := done == "true"
		filter.Done = &v
	}
	if tag := c.QueryParam("tag"); tag != "" {
		filter.TagID = &tag
	}
	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}
	if limit := c.QueryParam("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	if offset := c.QueryParam("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filter.Offset = n
		}
	}
	filter.SortBy = c.QueryParam("sortBy")
	filter.SortOrder = c.QueryParam("sortOrder")

	items, err := h.itemService.ListItems(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List items failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list items")
	}

	return c.JSON(http.StatusOK, items)
}

// CreateItem handles task creation
func (h *ItemHandler) CreateItem(c echo.Context) error {
	var req ports.CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.itemService.CreateItem(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Create item failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, item)
}

// GetItem handles getting a task by id
func (h *ItemHandler) GetItem(c echo.Context) error {
	item, err := h.itemService.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, entities.ErrItemNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Item not found")
		}
		h.logger.Error("Get item failed", "error", err, "item_id", c.Param("id"))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get item")
	}

	return c.JSON(http.StatusOK, item)
}

// UpdateItem handles editing a task
func (h *ItemHandler) UpdateItem(c echo.Context) error {
	var req ports.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	item, err := h.itemService.UpdateItem(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, entities.ErrItemNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Item not found")
		}
		h.logger.Error("Update item failed", "error", err, "item_id", c.Param("id"))
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, item)
}

// ToggleItem handles flipping a task's done state
func (h *ItemHandler) ToggleItem(c echo.Context) error {
	item, err := h.itemService.ToggleDone(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, entities.ErrItemNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Item not found")
		}
		h.logger.Error("Toggle item failed", "error", err, "item_id", c.Param("id"))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to toggle item")
	}

	return c.JSON(http.StatusOK, item)
}

// DeleteItem handles task deletion
func (h *ItemHandler) DeleteItem(c echo.Context) error {
	if err := h.itemService.DeleteItem(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, entities.ErrItemNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Item not found")
		}
		h.logger.Error("Delete item failed", "error", err, "item_id", c.Param("id"))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete item")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Item deleted"})
}

// MoodHandler handles mood entry requests
type MoodHandler struct {
	moodService *services.MoodService
	logger      *logger.Logger
}

// NewMoodHandler creates a new mood handler
func NewMoodHandler(moodService *services.MoodService, logger *logger.Logger) *MoodHandler {
	return &MoodHandler{
		moodService: moodService,
		logger:      logger,
	}
}

// UpsertEntry handles writing the entry for a date
func (h *MoodHandler) UpsertEntry(c echo.Context) error {
	var req ports.UpsertMoodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.moodService.UpsertEntry(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Upsert mood entry failed", "error", err, "date", req.Date)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, entry)
}

// GetEntry handles getting the entry for a date
func (h *MoodHandler) GetEntry(c echo.Context) error {
	entry, err := h.moodService.GetEntry(c.Request().Context(), c.Param("date"))
	if err != nil {
		if errors.Is(err, entities.ErrMoodEntryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "No entry for that date")
		}
		h.logger.Error("Get mood entry failed", "error", err, "date", c.Param("date"))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get entry")
	}

	return c.JSON(http.StatusOK, entry)
}

// ListEntries handles listing entries, optionally by year
func (h *MoodHandler) ListEntries(c echo.Context) error {
	year := 0
	if y := c.QueryParam("year"); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid year")
		}
		year = n
	}

	entries, err := h.moodService.ListEntries(c.Request().Context(), year)
	if err != nil {
		h.logger.Error("List mood entries failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list entries")
	}

	return c.JSON(http.StatusOK, entries)
}

// DeleteEntry handles deleting the entry for a date
func (h *MoodHandler) DeleteEntry(c echo.Context) error {
	if err := h.moodService.DeleteEntry(c.Request().Context(), c.Param("date")); err != nil {
		if errors.Is(err, entities.ErrMoodEntryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "No entry for that date")
		}
		h.logger.Error("Delete mood entry failed", "error", err, "date", c.Param("date"))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete entry")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Entry deleted"})
}

// TagHandler handles tag list requests
type TagHandler struct {
	tagService *services.TagService
	logger     *logger.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagService *services.TagService, logger *logger.Logger) *TagHandler {
	return &TagHandler{
		tagService: tagService,
		logger:     logger,
	}
}

// ListTags handles listing all tags
func (h *TagHandler) ListTags(c echo.Context) error {
	tags, err := h.tagService.ListTags(c.Request().Context())
	if err != nil {
		h.logger.Error("List tags failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list tags")
	}

	return c.JSON(http.StatusOK, tags)
}

// AddTag handles tag creation
func (h *TagHandler) AddTag(c echo.Context) error {
	var req ports.TagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tag, err := h.tagService.AddTag(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Add tag failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, tag)
}

// UpdateTag handles tag edits
func (h *TagHandler) UpdateTag(c echo.Context) error {
	var req ports.TagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	tag, err := h.tagService.UpdateTag(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, entities.ErrTagNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Tag not found")
		}
		h.logger.Error("Update tag failed", "error", err, "tag_id", c.Param("id"))
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, tag)
}

// RemoveTag handles tag deletion
func (h *TagHandler) RemoveTag(c echo.Context) error {
	if err := h.tagService.RemoveTag(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, entities.ErrTagNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Tag not found")
		}
		h.logger.Error("Remove tag failed", "error", err, "tag_id", c.Param("id"))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to remove tag")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Tag removed"})
}
