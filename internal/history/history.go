// Package history keeps finished generations, newest first, so they can be
// listed and restored into a fresh request.
package history

import (
	"context"
	"errors"
	"time"

	"archviz-studio/internal/media"
	"archviz-studio/internal/prompt"
)

var ErrNotFound = errors.New("history: record not found")

// Record is one successful generation. Request holds every parameter needed
// to re-derive the request that produced it.
type Record struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	CreatedAt   time.Time      `json:"createdAt"`
	Mode        prompt.Mode    `json:"mode"`
	Image       media.Image    `json:"image"`
	Instruction string         `json:"instruction,omitempty"`
	Request     prompt.Request `json:"request"`
}

// Restore returns a fresh copy of the originating request.
func (r Record) Restore() prompt.Request {
	return r.Request.Clone()
}

type Store interface {
	Append(ctx context.Context, rec Record) error
	// List returns up to limit records for userID, newest first. limit <= 0
	// means all retained records.
	List(ctx context.Context, userID string, limit int) ([]Record, error)
	Get(ctx context.Context, userID, id string) (Record, error)
}
