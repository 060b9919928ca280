package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/rolocard/enrich-cli/internal/db"
	"github.com/rolocard/enrich-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":        `INSERT INTO runs (id, owner_user_id, document, status, progress, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"update_run_status": `UPDATE runs SET status = $1, progress = $2, updated_at = $3 WHERE id = $4`,
	"get_run":           `SELECT id, owner_user_id, document, status, progress, contact_id, merged, error, created_at, updated_at FROM runs WHERE id = $1`,
	"list_contacts":     `SELECT id, owner_user_id, name, email, phone, company, title, location, extracted, enriched, confidence, tags, notes, created_at, updated_at FROM contacts WHERE owner_user_id = $1 ORDER BY created_at ASC`,
	"get_credential":    `SELECT secret FROM credentials WHERE owner_user_id = $1 AND service = $2 AND key = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner_user_id TEXT NOT NULL,
	document      TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'queued',
	progress      INTEGER NOT NULL DEFAULT 0,
	contact_id    TEXT,
	merged        BOOLEAN NOT NULL DEFAULT false,
	error         TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner_user_id TEXT NOT NULL,
	name          TEXT,
	email         TEXT,
	phone         TEXT,
	company       TEXT,
	title         TEXT,
	location      TEXT,
	extracted     JSONB NOT NULL,
	enriched      JSONB NOT NULL,
	confidence    DOUBLE PRECISION NOT NULL DEFAULT 0,
	tags          JSONB,
	notes         TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS credentials (
	owner_user_id TEXT NOT NULL,
	service       TEXT NOT NULL,
	key           TEXT NOT NULL,
	secret        TEXT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (owner_user_id, service, key)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_owner ON runs(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_contacts_owner ON contacts(owner_user_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, ownerUserID, document string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, owner_user_id, document, status, progress, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, ownerUserID, document, string(model.RunStatusQueued), model.RunStatusQueued.Progress(), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, progress = $2, updated_at = $3 WHERE id = $4`,
		string(status), status.Progress(), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	return checkTag(tag, "run", runID)
}

func (s *PostgresStore) FailRun(ctx context.Context, runID, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, progress = $2, error = $3, updated_at = $4 WHERE id = $5`,
		string(model.RunStatusFailed), model.RunStatusFailed.Progress(), message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	return checkTag(tag, "run", runID)
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID, contactID string, merged bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, progress = $2, contact_id = $3, merged = $4, updated_at = $5 WHERE id = $6`,
		string(model.RunStatusCompleted), model.RunStatusCompleted.Progress(), contactID, merged, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	return checkTag(tag, "run", runID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_user_id, document, status, progress, contact_id, merged, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	run, err := scanPgRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, owner_user_id, document, status, progress, contact_id, merged, error, created_at, updated_at FROM runs WHERE 1=1`
	args := []any{}
	n := 0
	next := func() string {
		n++
		return "$" + strconv.Itoa(n)
	}
	if filter.OwnerUserID != "" {
		query += ` AND owner_user_id = ` + next()
		args = append(args, filter.OwnerUserID)
	}
	if filter.Status != "" {
		query += ` AND status = ` + next()
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + next()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + next()
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs")
}

func (s *PostgresStore) CreateContact(ctx context.Context, contact *model.Contact) error {
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

	_, err = s.pool.Exec(ctx,
		`INSERT INTO contacts (id, owner_user_id, name, email, phone, company, title, location,
		                       extracted, enriched, confidence, tags, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		contact.ID, contact.OwnerUserID, contact.Name, contact.Email, contact.Phone,
		contact.Company, contact.Title, contact.Location,
		extracted, enriched, contact.ConfidenceScore, nullIfEmpty(tags), contact.Notes, now, now,
	)
	return eris.Wrap(err, "postgres: insert contact")
}

func (s *PostgresStore) GetContact(ctx context.Context, ownerUserID, contactID string) (*model.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, owner_user_id, name, email, phone, company, title, location, extracted, enriched, confidence, tags, notes, created_at, updated_at
		 FROM contacts WHERE id = $1 AND owner_user_id = $2`,
		contactID, ownerUserID,
	)
	contact, err := scanPgContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: contact %s", contactID)
		}
		return nil, eris.Wrapf(err, "postgres: get contact %s", contactID)
	}
	return contact, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, ownerUserID string) ([]model.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_user_id, name, email, phone, company, title, location, extracted, enriched, confidence, tags, notes, created_at, updated_at FROM contacts WHERE owner_user_id = $1 ORDER BY created_at ASC`,
		ownerUserID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		contact, err := scanPgContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		contacts = append(contacts, *contact)
	}
	return contacts, eris.Wrap(rows.Err(), "postgres: list contacts")
}

func (s *PostgresStore) UpdateContact(ctx context.Context, contact *model.Contact) error {
	contact.UpdatedAt = time.Now().UTC()

	extracted, enriched, tags, err := marshalContactJSON(contact)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET name = $1, email = $2, phone = $3, company = $4, title = $5, location = $6,
		        extracted = $7, enriched = $8, confidence = $9, tags = $10, notes = $11, updated_at = $12
		 WHERE id = $13 AND owner_user_id = $14`,
		contact.Name, contact.Email, contact.Phone, contact.Company, contact.Title, contact.Location,
		extracted, enriched, contact.ConfidenceScore, nullIfEmpty(tags), contact.Notes, contact.UpdatedAt,
		contact.ID, contact.OwnerUserID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update contact %s", contact.ID)
	}
	return checkTag(tag, "contact", contact.ID)
}

func (s *PostgresStore) DeleteContact(ctx context.Context, ownerUserID, contactID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM contacts WHERE id = $1 AND owner_user_id = $2`,
		contactID, ownerUserID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete contact %s", contactID)
	}
	return checkTag(tag, "contact", contactID)
}

func (s *PostgresStore) GetCredential(ctx context.Context, ownerUserID, service, key string) (string, error) {
	var secret string
	err := s.pool.QueryRow(ctx,
		`SELECT secret FROM credentials WHERE owner_user_id = $1 AND service = $2 AND key = $3`,
		ownerUserID, service, key,
	).Scan(&secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", eris.Wrapf(ErrNotFound, "postgres: credential %s/%s", service, key)
	}
	if err != nil {
		return "", eris.Wrapf(err, "postgres: get credential %s/%s", service, key)
	}
	return secret, nil
}

func (s *PostgresStore) SetCredential(ctx context.Context, ownerUserID, service, key, secret string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO credentials (owner_user_id, service, key, secret, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (owner_user_id, service, key) DO UPDATE SET secret = excluded.secret, updated_at = excluded.updated_at`,
		ownerUserID, service, key, secret, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set credential %s/%s", service, key)
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var (
		run       model.Run
		status    string
		contactID *string
		errMsg    *string
	)
	if err := row.Scan(&run.ID, &run.OwnerUserID, &run.Document, &status, &run.Progress,
		&contactID, &run.Merged, &errMsg, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if contactID != nil {
		run.ContactID = *contactID
	}
	if errMsg != nil {
		run.Error = *errMsg
	}
	return &run, nil
}

func scanPgContact(row pgx.Row) (*model.Contact, error) {
	var (
		contact   model.Contact
		name      *string
		email     *string
		phone     *string
		company   *string
		title     *string
		location  *string
		extracted []byte
		enriched  []byte
		tags      []byte
		notes     *string
	)
	if err := row.Scan(&contact.ID, &contact.OwnerUserID, &name, &email, &phone, &company,
		&title, &location, &extracted, &enriched, &contact.ConfidenceScore,
		&tags, &notes, &contact.CreatedAt, &contact.UpdatedAt); err != nil {
		return nil, err
	}
	contact.Name = deref(name)
	contact.Email = deref(email)
	contact.Phone = deref(phone)
	contact.Company = deref(company)
	contact.Title = deref(title)
	contact.Location = deref(location)
	contact.Notes = deref(notes)

	if err := json.Unmarshal(extracted, &contact.ExtractedData); err != nil {
		return nil, eris.Wrap(err, "unmarshal extracted data")
	}
	if err := json.Unmarshal(enriched, &contact.EnrichedData); err != nil {
		return nil, eris.Wrap(err, "unmarshal enriched data")
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &contact.Tags); err != nil {
			return nil, eris.Wrap(err, "unmarshal tags")
		}
	}
	return &contact, nil
}

func checkTag(tag pgconn.CommandTag, kind, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", kind, id)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
