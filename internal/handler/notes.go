package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/repository"
)

const (
	maxTitleLen   = 100
	maxContentLen = 1000

	defaultPageLimit = 10
	maxPageLimit     = 100
)

// NoteStore is the note repository as seen by the handlers.
type NoteStore interface {
	Create(ctx context.Context, ownerID uint64, title, content string) (model.Note, error)
	GetByID(ctx context.Context, id uint64) (model.Note, error)
	Update(ctx context.Context, n *model.Note) error
	Delete(ctx context.Context, id, ownerID uint64) error
	ListByOwner(ctx context.Context, ownerID uint64, f model.NoteFilter) ([]model.Note, error)
}

// ListingCache caches serialized listings per owner and query shape.
type ListingCache interface {
	Get(ctx context.Context, owner uint64, f model.NoteFilter) ([]byte, bool, error)
	Put(ctx context.Context, owner uint64, f model.NoteFilter, payload []byte) error
	InvalidateOwner(ctx context.Context, owner uint64) error
}

// NoteHandler serves /v1/notes. Cache may be nil, in which case every
// listing goes to the record store.
type NoteHandler struct {
	Notes   NoteStore
	Cache   ListingCache
	Timeout time.Duration
	Log     logrus.FieldLogger
}

func NewNoteHandler(notes NoteStore, cache ListingCache, timeout time.Duration, log logrus.FieldLogger) *NoteHandler {
	return &NoteHandler{Notes: notes, Cache: cache, Timeout: timeout, Log: log}
}

type createNoteReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// updateNoteReq uses pointers so omitted fields keep their stored value.
type updateNoteReq struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func validateNote(title, content string) string {
	if strings.TrimSpace(title) == "" {
		return "title is required"
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "title must be at most 100 characters"
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return "content must be at most 1000 characters"
	}
	return ""
}

// Create stores a note for the caller and drops the caller's cached
// listings.
func (h *NoteHandler) Create(c echo.Context) error {
	u, err := identity(c)
	if err != nil {
		return err
	}
	var req createNoteReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if msg := validateNote(req.Title, req.Content); msg != "" {
		return badRequest(c, msg)
	}

	ctx, cancel := storeContext(c, h.Timeout)
	defer cancel()

	n, err := h.Notes.Create(ctx, u.ID, req.Title, req.Content)
	if err != nil {
		return storeFailure(c, h.Log, "create note", err)
	}
	h.invalidate(ctx, u.ID)
	return c.JSON(http.StatusCreated, n)
}

// List returns one page of the caller's notes, served from the listing
// cache when possible. X-Cache tells which path answered.
func (h *NoteHandler) List(c echo.Context) error {
	u, err := identity(c)
	if err != nil {
		return err
	}
	f, msg := parseNoteFilter(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	ctx, cancel := storeContext(c, h.Timeout)
	defer cancel()

	if h.Cache != nil {
		payload, hit, err := h.Cache.Get(ctx, u.ID, f)
		switch {
		case err != nil:
			// degrade to the record store
			h.Log.WithError(err).WithField("owner_id", u.ID).Warn("listing cache read failed")
		case hit:
			c.Response().Header().Set("X-Cache", "HIT")
			return c.JSONBlob(http.StatusOK, payload)
		}
	}

	notes, err := h.Notes.ListByOwner(ctx, u.ID, f)
	if err != nil {
		return storeFailure(c, h.Log, "list notes", err)
	}
	if notes == nil {
		notes = []model.Note{}
	}
	payload, err := json.Marshal(notes)
	if err != nil {
		return err
	}
	if h.Cache != nil {
		if err := h.Cache.Put(ctx, u.ID, f, payload); err != nil {
			h.Log.WithError(err).WithField("owner_id", u.ID).Warn("listing cache write failed")
		}
	}
	c.Response().Header().Set("X-Cache", "MISS")
	return c.JSONBlob(http.StatusOK, payload)
}

// Get returns one note. 404 when it does not exist, 403 when it belongs
// to somebody else.
func (h *NoteHandler) Get(c echo.Context) error {
	u, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := storeContext(c, h.Timeout)
	defer cancel()

	n, done, err := h.loadOwned(ctx, c, u, "access")
	if done {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

// Update applies a partial update. Fields absent from the body are kept.
func (h *NoteHandler) Update(c echo.Context) error {
	u, err := identity(c)
	if err != nil {
		return err
	}
	var req updateNoteReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := storeContext(c, h.Timeout)
	defer cancel()

	n, done, err := h.loadOwned(ctx, c, u, "update")
	if done {
		return err
	}
	if req.Title != nil {
		n.Title = *req.Title
	}
	if req.Content != nil {
		n.Content = *req.Content
	}
	if msg := validateNote(n.Title, n.Content); msg != "" {
		return badRequest(c, msg)
	}

	if err := h.Notes.Update(ctx, &n); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		return storeFailure(c, h.Log, "update note", err)
	}
	h.invalidate(ctx, u.ID)
	return c.JSON(http.StatusOK, n)
}

// Delete removes a note and answers 204.
func (h *NoteHandler) Delete(c echo.Context) error {
	u, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := storeContext(c, h.Timeout)
	defer cancel()

	n, done, err := h.loadOwned(ctx, c, u, "delete")
	if done {
		return err
	}
	if err := h.Notes.Delete(ctx, n.ID, u.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		return storeFailure(c, h.Log, "delete note", err)
	}
	h.invalidate(ctx, u.ID)
	return c.NoContent(http.StatusNoContent)
}

// loadOwned fetches the note named by :id and checks it belongs to u. When
// done is true the response has been written and err must be returned.
func (h *NoteHandler) loadOwned(ctx context.Context, c echo.Context, u model.User, verb string) (n model.Note, done bool, err error) {
	id, perr := strconv.ParseUint(c.Param("id"), 10, 64)
	if perr != nil || id == 0 {
		return model.Note{}, true, badRequest(c, "invalid id")
	}
	n, err = h.Notes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Note{}, true, c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
		}
		return model.Note{}, true, storeFailure(c, h.Log, "load note", err)
	}
	if n.OwnerID != u.ID {
		return model.Note{}, true, c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized to " + verb + " this note"})
	}
	return n, false, nil
}

// invalidate drops owner's cached listings. The write already succeeded,
// so a failure is only logged; the entries age out with their TTL.
func (h *NoteHandler) invalidate(ctx context.Context, owner uint64) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.InvalidateOwner(ctx, owner); err != nil {
		h.Log.WithError(err).WithField("owner_id", owner).Error("listing cache not invalidated after write")
	}
}

// parseNoteFilter reads offset (alias skip), limit and search. limit is
// clamped to 1..100 and defaults to 10.
func parseNoteFilter(c echo.Context) (model.NoteFilter, string) {
	f := model.NoteFilter{Limit: defaultPageLimit, Search: strings.TrimSpace(c.QueryParam("search"))}

	rawOffset := c.QueryParam("offset")
	if rawOffset == "" {
		rawOffset = c.QueryParam("skip")
	}
	if rawOffset != "" {
		v, err := strconv.Atoi(rawOffset)
		if err != nil || v < 0 {
			return f, "offset must be a non-negative integer"
		}
		f.Offset = v
	}
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return f, "limit must be an integer"
		}
		f.Limit = min(max(v, 1), maxPageLimit)
	}
	return f, ""
}
