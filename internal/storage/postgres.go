package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fnaterm/internal/fna"
)

// Postgres is the hosted Session Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to databaseURL and ensures the schema exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	// Simple protocol works through transaction poolers.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &Postgres{pool: pool}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// postgresSchema is applied in order by EnsureSchema.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS clientregistrations (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            firstname TEXT NOT NULL,
            lastname TEXT NOT NULL,
            phone TEXT,
            email TEXT,
            createdat TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
	`CREATE TABLE IF NOT EXISTS fna_header (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            client_id UUID NOT NULL UNIQUE REFERENCES clientregistrations(id) ON DELETE CASCADE,
            spouse_name TEXT,
            address TEXT,
            city TEXT,
            state TEXT,
            zip_code TEXT,
            more_children_planned BOOLEAN,
            more_children_count INT,
            goals_text TEXT,
            own_or_rent TEXT,
            properties_notes TEXT,
            has_old_401k BOOLEAN,
            expects_lump_sum BOOLEAN,
            li_debt NUMERIC,
            li_income NUMERIC,
            li_mortgage NUMERIC,
            li_education NUMERIC,
            li_insurance_in_place NUMERIC,
            retirement_monthly_need NUMERIC,
            monthly_commitment NUMERIC,
            next_appointment_date DATE,
            next_appointment_time TIME,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
	`CREATE TABLE IF NOT EXISTS fna_sessions (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            household_income NUMERIC,
            dependents INT
        )`,
	// Tables created before client_id was unique need the index for
	// ON CONFLICT (client_id). Fails if duplicate headers already exist.
	`CREATE UNIQUE INDEX IF NOT EXISTS fna_header_client_id_key ON fna_header (client_id)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ListClients loads all clients newest first.
func (p *Postgres) ListClients(ctx context.Context) ([]fna.Client, error) {
	rows, err := p.pool.Query(ctx, `SELECT id::text, COALESCE(firstname, ''), COALESCE(lastname, ''), COALESCE(phone, ''), COALESCE(email, ''), createdat
        FROM clientregistrations ORDER BY createdat DESC`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var clients []fna.Client
	for rows.Next() {
		var c fna.Client
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clients rows: %w", err)
	}
	return clients, nil
}

// GetOrCreateHeader inserts an empty header unless one exists, then reads it.
func (p *Postgres) GetOrCreateHeader(ctx context.Context, clientID string) (fna.Header, bool, error) {
	tag, err := p.pool.Exec(ctx, `INSERT INTO fna_header (client_id) VALUES ($1) ON CONFLICT (client_id) DO NOTHING`, clientID)
	if err != nil {
		return fna.Header{}, false, fmt.Errorf("insert fna header: %w", err)
	}
	h, err := scanPostgresHeader(p.pool.QueryRow(ctx, pgSelectHeader+` WHERE client_id = $1`, clientID))
	if err != nil {
		return fna.Header{}, false, fmt.Errorf("get fna header: %w", err)
	}
	return h, tag.RowsAffected() == 1, nil
}

// UpdateHeader writes every mutable column of h.
func (p *Postgres) UpdateHeader(ctx context.Context, h fna.Header) error {
	set := make([]string, 0, len(mutableColumns)+1)
	for i, col := range mutableColumns {
		set = append(set, fmt.Sprintf("%s = $%d", col, i+1))
	}
	n := len(mutableColumns)
	set = append(set, fmt.Sprintf("updated_at = $%d", n+1))
	args := append(updateArgs(h), h.UpdatedAt, h.ID)

	tag, err := p.pool.Exec(ctx, `UPDATE fna_header SET `+strings.Join(set, ", ")+fmt.Sprintf(` WHERE id = $%d`, n+2), args...)
	if err != nil {
		return fmt.Errorf("update fna header: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSessions returns dashboard sessions newest first.
func (p *Postgres) ListSessions(ctx context.Context) ([]fna.Session, error) {
	rows, err := p.pool.Query(ctx, `SELECT id::text, created_at, household_income, dependents FROM fna_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []fna.Session
	for rows.Next() {
		sess, err := scanPostgresSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sessions rows: %w", err)
	}
	return sessions, nil
}

// SessionByID retrieves one session.
func (p *Postgres) SessionByID(ctx context.Context, id string) (fna.Session, error) {
	sess, err := scanPostgresSession(p.pool.QueryRow(ctx, `SELECT id::text, created_at, household_income, dependents FROM fna_sessions WHERE id::text = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fna.Session{}, ErrNotFound
		}
		return fna.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

var pgSelectHeader = func() string {
	casts := map[string]string{
		"id":                    "id::text",
		"client_id":             "client_id::text",
		"next_appointment_date": "to_char(next_appointment_date, 'YYYY-MM-DD')",
		"next_appointment_time": "to_char(next_appointment_time, 'HH24:MI')",
	}
	cols := make([]string, len(headerColumns))
	for i, col := range headerColumns {
		if cast, ok := casts[col]; ok {
			col = cast
		}
		cols[i] = col
	}
	return `SELECT ` + strings.Join(cols, ", ") + ` FROM fna_header`
}()

func scanPostgresHeader(row pgx.Row) (fna.Header, error) {
	var r headerRow
	var created, updated time.Time
	if err := row.Scan(r.dest(&created, &updated)...); err != nil {
		return fna.Header{}, err
	}
	h := r.header()
	h.CreatedAt = created
	h.UpdatedAt = updated
	return h, nil
}

func scanPostgresSession(row pgx.Row) (fna.Session, error) {
	var sess fna.Session
	var income decimal.NullDecimal
	var dependents *int32
	if err := row.Scan(&sess.ID, &sess.CreatedAt, &income, &dependents); err != nil {
		return fna.Session{}, err
	}
	sess.HouseholdIncome = income.Decimal
	if dependents != nil {
		sess.Dependents = int(*dependents)
	}
	return sess, nil
}
