package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/rolocard/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	owner_user_id TEXT NOT NULL,
	document      TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'queued',
	progress      INTEGER NOT NULL DEFAULT 0,
	contact_id    TEXT,
	merged        INTEGER NOT NULL DEFAULT 0,
	error         TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contacts (
	id            TEXT PRIMARY KEY,
	owner_user_id TEXT NOT NULL,
	name          TEXT,
	email         TEXT,
	phone         TEXT,
	company       TEXT,
	title         TEXT,
	location      TEXT,
	extracted     TEXT NOT NULL,
	enriched      TEXT NOT NULL,
	confidence    REAL NOT NULL DEFAULT 0,
	tags          TEXT,
	notes         TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS credentials (
	owner_user_id TEXT NOT NULL,
	service       TEXT NOT NULL,
	key           TEXT NOT NULL,
	secret        TEXT NOT NULL,
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (owner_user_id, service, key)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_owner ON runs(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_contacts_owner ON contacts(owner_user_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, ownerUserID, document string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, owner_user_id, document, status, progress, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ownerUserID, document, string(model.RunStatusQueued), model.RunStatusQueued.Progress(), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:          id,
		OwnerUserID: ownerUserID,
		Document:    document,
		Status:      model.RunStatusQueued,
		Progress:    model.RunStatusQueued.Progress(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, progress = ?, updated_at = ? WHERE id = ?`,
		string(status), status.Progress(), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, progress = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), model.RunStatusFailed.Progress(), message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID, contactID string, merged bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, progress = ?, contact_id = ?, merged = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusCompleted), model.RunStatusCompleted.Progress(), contactID, merged, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_user_id, document, status, progress, contact_id, merged, error, created_at, updated_at
		 FROM runs WHERE id = ?`,
		runID,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", runID)
		}
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, owner_user_id, document, status, progress, contact_id, merged, error, created_at, updated_at
	          FROM runs WHERE 1=1`
	args := []any{}
	if filter.OwnerUserID != "" {
		query += ` AND owner_user_id = ?`
		args = append(args, filter.OwnerUserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs")
}

func (s *SQLiteStore) CreateContact(ctx context.Context, contact *model.Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	extracted, enriched, tags, err := marshalContactJSON(contact)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, owner_user_id, name, email, phone, company, title, location,
		                       extracted, enriched, confidence, tags, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.ID, contact.OwnerUserID, contact.Name, contact.Email, contact.Phone,
		contact.Company, contact.Title, contact.Location,
		extracted, enriched, contact.ConfidenceScore, tags, contact.Notes, now, now,
	)
	return eris.Wrap(err, "sqlite: insert contact")
}

func (s *SQLiteStore) GetContact(ctx context.Context, ownerUserID, contactID string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_user_id, name, email, phone, company, title, location,
		        extracted, enriched, confidence, tags, notes, created_at, updated_at
		 FROM contacts WHERE id = ? AND owner_user_id = ?`,
		contactID, ownerUserID,
	)
	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: contact %s", contactID)
		}
		return nil, eris.Wrapf(err, "sqlite: get contact %s", contactID)
	}
	return contact, nil
}

func (s *SQLiteStore) ListContacts(ctx context.Context, ownerUserID string) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_user_id, name, email, phone, company, title, location,
		        extracted, enriched, confidence, tags, notes, created_at, updated_at
		 FROM contacts WHERE owner_user_id = ? ORDER BY created_at ASC`,
		ownerUserID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		contacts = append(contacts, *contact)
	}
	return contacts, eris.Wrap(rows.Err(), "sqlite: list contacts")
}

func (s *SQLiteStore) UpdateContact(ctx context.Context, contact *model.Contact) error {
	contact.UpdatedAt = time.Now().UTC()

	extracted, enriched, tags, err := marshalContactJSON(contact)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET name = ?, email = ?, phone = ?, company = ?, title = ?, location = ?,
		        extracted = ?, enriched = ?, confidence = ?, tags = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND owner_user_id = ?`,
		contact.Name, contact.Email, contact.Phone, contact.Company, contact.Title, contact.Location,
		extracted, enriched, contact.ConfidenceScore, tags, contact.Notes, contact.UpdatedAt,
		contact.ID, contact.OwnerUserID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update contact %s", contact.ID)
	}
	return checkRowsAffected(res, "contact", contact.ID)
}

func (s *SQLiteStore) DeleteContact(ctx context.Context, ownerUserID, contactID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = ? AND owner_user_id = ?`,
		contactID, ownerUserID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete contact %s", contactID)
	}
	return checkRowsAffected(res, "contact", contactID)
}

func (s *SQLiteStore) GetCredential(ctx context.Context, ownerUserID, service, key string) (string, error) {
	var secret string
	err := s.db.QueryRowContext(ctx,
		`SELECT secret FROM credentials WHERE owner_user_id = ? AND service = ? AND key = ?`,
		ownerUserID, service, key,
	).Scan(&secret)
	if errors.Is(err, sql.ErrNoRows) {
		return "", eris.Wrapf(ErrNotFound, "sqlite: credential %s/%s", service, key)
	}
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: get credential %s/%s", service, key)
	}
	return secret, nil
}

func (s *SQLiteStore) SetCredential(ctx context.Context, ownerUserID, service, key, secret string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (owner_user_id, service, key, secret, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (owner_user_id, service, key) DO UPDATE SET secret = excluded.secret, updated_at = excluded.updated_at`,
		ownerUserID, service, key, secret, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set credential %s/%s", service, key)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	var (
		run       model.Run
		status    string
		contactID sql.NullString
		errMsg    sql.NullString
	)
	if err := row.Scan(&run.ID, &run.OwnerUserID, &run.Document, &status, &run.Progress,
		&contactID, &run.Merged, &errMsg, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	run.ContactID = contactID.String
	run.Error = errMsg.String
	return &run, nil
}

func scanContact(row scanner) (*model.Contact, error) {
	var (
		contact   model.Contact
		name      sql.NullString
		email     sql.NullString
		phone     sql.NullString
		company   sql.NullString
		title     sql.NullString
		location  sql.NullString
		extracted string
		enriched  string
		tags      sql.NullString
		notes     sql.NullString
	)
	if err := row.Scan(&contact.ID, &contact.OwnerUserID, &name, &email, &phone, &company,
		&title, &location, &extracted, &enriched, &contact.ConfidenceScore,
		&tags, &notes, &contact.CreatedAt, &contact.UpdatedAt); err != nil {
		return nil, err
	}
	contact.Name = name.String
	contact.Email = email.String
	contact.Phone = phone.String
	contact.Company = company.String
	contact.Title = title.String
	contact.Location = location.String
	contact.Notes = notes.String

	if err := json.Unmarshal([]byte(extracted), &contact.ExtractedData); err != nil {
		return nil, eris.Wrap(err, "unmarshal extracted data")
	}
	if err := json.Unmarshal([]byte(enriched), &contact.EnrichedData); err != nil {
		return nil, eris.Wrap(err, "unmarshal enriched data")
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &contact.Tags); err != nil {
			return nil, eris.Wrap(err, "unmarshal tags")
		}
	}
	return &contact, nil
}

func marshalContactJSON(contact *model.Contact) (extracted, enriched, tags string, err error) {
	ext, err := json.Marshal(contact.ExtractedData)
	if err != nil {
		return "", "", "", eris.Wrap(err, "marshal extracted data")
	}
	enr, err := json.Marshal(contact.EnrichedData)
	if err != nil {
		return "", "", "", eris.Wrap(err, "marshal enriched data")
	}
	tagsJSON := ""
	if len(contact.Tags) > 0 {
		t, err := json.Marshal(contact.Tags)
		if err != nil {
			return "", "", "", eris.Wrap(err, "marshal tags")
		}
		tagsJSON = string(t)
	}
	return string(ext), string(enr), tagsJSON, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", kind, id)
	}
	return nil
}
