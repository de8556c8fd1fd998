package model

import "time"

// Note mirrors the `notes` table. Notes are owned by exactly one user and
// every read and write is scoped by OwnerID.
type Note struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	OwnerID   uint64    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteFilter describes the query shape of a listing: pagination plus an
// optional case-insensitive title search. It is also the cache key shape.
type NoteFilter struct {
	Offset int
	Limit  int
	Search string
}
