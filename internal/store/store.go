// Package store persists runs, contacts, and per-user credentials.
package store

import (
	"context"
	"errors"

	"github.com/rolocard/enrich-cli/internal/model"
)

// ErrNotFound is returned when a requested row does not exist. Callers
// should match it with errors.Is; implementations wrap it with context.
var ErrNotFound = errors.New("not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	OwnerUserID string          `json:"owner_user_id,omitempty"`
	Status      model.RunStatus `json:"status,omitempty"`
	Limit       int             `json:"limit,omitempty"`
	Offset      int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, ownerUserID, document string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	FailRun(ctx context.Context, runID, message string) error
	CompleteRun(ctx context.Context, runID, contactID string, merged bool) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Contacts
	CreateContact(ctx context.Context, contact *model.Contact) error
	GetContact(ctx context.Context, ownerUserID, contactID string) (*model.Contact, error)
	ListContacts(ctx context.Context, ownerUserID string) ([]model.Contact, error)
	UpdateContact(ctx context.Context, contact *model.Contact) error
	DeleteContact(ctx context.Context, ownerUserID, contactID string) error

	// Credentials
	GetCredential(ctx context.Context, ownerUserID, service, key string) (string, error)
	SetCredential(ctx context.Context, ownerUserID, service, key, secret string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
