package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/notes-api/internal/model"
)

type NoteRepo struct{ DB *sql.DB }

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{DB: db} }

const noteColumns = "id,title,content,owner_id,created_at,updated_at"

// Create inserts a note owned by ownerID.
func (r *NoteRepo) Create(ctx context.Context, ownerID uint64, title, content string) (model.Note, error) {
	now := time.Now().UTC()
	n := model.Note{Title: title, Content: content, OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO notes (title, content, owner_id, created_at, updated_at) VALUES (?,?,?,?,?)",
		n.Title, n.Content, n.OwnerID, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return model.Note{}, fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Note{}, fmt.Errorf("insert note: %w", err)
	}
	n.ID = uint64(id)
	return n, nil
}

// GetByID fetches a note regardless of owner; callers check OwnerID.
func (r *NoteRepo) GetByID(ctx context.Context, id uint64) (model.Note, error) {
	var n model.Note
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE id=? LIMIT 1", id).
		Scan(&n.ID, &n.Title, &n.Content, &n.OwnerID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Note{}, ErrNotFound
		}
		return model.Note{}, fmt.Errorf("select note: %w", err)
	}
	return n, nil
}

// Update writes title and content of n, scoped to its owner. It sets
// n.UpdatedAt on success.
func (r *NoteRepo) Update(ctx context.Context, n *model.Note) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notes SET title=?, content=?, updated_at=? WHERE id=? AND owner_id=?",
		n.Title, n.Content, now, n.ID, n.OwnerID)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	n.UpdatedAt = now
	return nil
}

// Delete removes the note id owned by ownerID.
func (r *NoteRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM notes WHERE id=? AND owner_id=?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return requireAffected(res)
}

// ListByOwner returns one page of ownerID's notes ordered by id. A
// non-empty Search keeps notes whose title contains it, case-insensitively.
func (r *NoteRepo) ListByOwner(ctx context.Context, ownerID uint64, f model.NoteFilter) ([]model.Note, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(s))+"%")
	}
	args = append(args, f.Limit, f.Offset)

	q := "SELECT " + noteColumns + " FROM notes WHERE " + strings.Join(where, " AND ") +
		" ORDER BY id ASC LIMIT ? OFFSET ?"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select notes: %w", err)
	}
	defer rows.Close()

	out := make([]model.Note, 0, f.Limit)
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.OwnerID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return out, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// escapeLike escapes LIKE wildcards so a search for "50%" matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
