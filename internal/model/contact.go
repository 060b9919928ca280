package model

import "time"

// RunStatus represents the current state of an enrichment run.
type RunStatus string

const (
	RunStatusQueued        RunStatus = "queued"
	RunStatusExtracting    RunStatus = "extracting"
	RunStatusEnriching     RunStatus = "enriching"
	RunStatusDeduplicating RunStatus = "deduplicating"
	RunStatusScoring       RunStatus = "scoring"
	RunStatusCompleted     RunStatus = "completed"
	RunStatusFailed        RunStatus = "failed"
)

// Progress returns the advisory completion percentage for a status.
// Pollers must tolerate skipped intermediate values.
func (s RunStatus) Progress() int {
	switch s {
	case RunStatusQueued:
		return 0
	case RunStatusExtracting:
		return 25
	case RunStatusEnriching:
		return 50
	case RunStatusDeduplicating:
		return 75
	case RunStatusScoring:
		return 90
	case RunStatusCompleted:
		return 100
	case RunStatusFailed:
		return 100
	default:
		return 0
	}
}

// Terminal reports whether the status is an end state. Failed runs are
// terminal; re-processing requires submitting a new run.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// Document is an uploaded file to be processed by one pipeline run.
type Document struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// Run represents a single enrichment run for one document.
type Run struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Document    string    `json:"document"`
	Status      RunStatus `json:"status"`
	Progress    int       `json:"progress"`
	ContactID   string    `json:"contact_id,omitempty"`
	Merged      bool      `json:"merged,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Contact is the persisted entity owned by a user. ExtractedData keeps
// the raw extraction verbatim; EnrichedData the merged profile.
type Contact struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`

	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
	Title    string `json:"title,omitempty"`
	Location string `json:"location,omitempty"`

	ExtractedData   RawProfile      `json:"extracted_data"`
	EnrichedData    EnrichedProfile `json:"enriched_data"`
	ConfidenceScore float64         `json:"confidence_score"`

	Tags  []string `json:"tags,omitempty"`
	Notes string   `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunOutcome is the final output of one pipeline run.
type RunOutcome struct {
	RunID     string          `json:"run_id"`
	ContactID string          `json:"contact_id"`
	Merged    bool            `json:"merged"`
	Profile   EnrichedProfile `json:"profile"`
	Sources   int             `json:"sources"`
	Duration  int64           `json:"duration_ms"`
}
