package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"fnaterm/internal/fna"
)

const (
	driverName = "sqlite3"
	// stampLayout is fixed width so TEXT timestamps sort chronologically.
	stampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLite is the local-file Session Store.
type SQLite struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite bootstraps the SQLite store at path, or at DefaultPath when empty.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps PRAGMAs and in-memory databases consistent.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &SQLite{db: db, path: path, now: time.Now}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// DefaultPath is the database file under the user config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.Getenv("HOME")
		if base == "" {
			return "", fmt.Errorf("cannot resolve data dir: %w", err)
		}
	}
	dir := filepath.Join(base, "fnaterm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create db dir: %w", err)
	}
	return filepath.Join(dir, "fna.db"), nil
}

// Path is the database file in use.
func (s *SQLite) Path() string { return s.path }

// Close releases DB resources.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS clientregistrations (
            id TEXT PRIMARY KEY,
            firstname TEXT NOT NULL,
            lastname TEXT NOT NULL,
            phone TEXT,
            email TEXT,
            createdat TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS fna_header (
            id TEXT PRIMARY KEY,
            client_id TEXT NOT NULL UNIQUE,
            spouse_name TEXT,
            address TEXT,
            city TEXT,
            state TEXT,
            zip_code TEXT,
            more_children_planned INTEGER,
            more_children_count INTEGER,
            goals_text TEXT,
            own_or_rent TEXT,
            properties_notes TEXT,
            has_old_401k INTEGER,
            expects_lump_sum INTEGER,
            li_debt TEXT,
            li_income TEXT,
            li_mortgage TEXT,
            li_education TEXT,
            li_insurance_in_place TEXT,
            retirement_monthly_need TEXT,
            monthly_commitment TEXT,
            next_appointment_date TEXT,
            next_appointment_time TEXT,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            FOREIGN KEY(client_id) REFERENCES clientregistrations(id) ON DELETE CASCADE
        );`,
		`CREATE TABLE IF NOT EXISTS fna_sessions (
            id TEXT PRIMARY KEY,
            created_at TEXT NOT NULL,
            household_income TEXT,
            dependents INTEGER
        );`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrations: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// ListClients loads all clients newest first.
func (s *SQLite) ListClients(ctx context.Context) ([]fna.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, firstname, lastname, phone, email, createdat FROM clientregistrations ORDER BY createdat DESC`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var clients []fna.Client
	for rows.Next() {
		var c fna.Client
		var phone, email sql.NullString
		var created string
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &phone, &email, &created); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		c.Phone = nullStringToString(phone)
		c.Email = nullStringToString(email)
		c.CreatedAt = parseStamp(created)
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clients rows: %w", err)
	}
	return clients, nil
}

// CreateClient inserts a client registration, assigning an id when blank.
func (s *SQLite) CreateClient(ctx context.Context, c *fna.Client) error {
	if strings.TrimSpace(c.FirstName) == "" && strings.TrimSpace(c.LastName) == "" {
		return fmt.Errorf("client name required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO clientregistrations (id, firstname, lastname, phone, email, createdat) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, strings.TrimSpace(c.FirstName), strings.TrimSpace(c.LastName), nullString(c.Phone), nullString(c.Email), formatStamp(c.CreatedAt))
	if err != nil {
		if isUniqueConstraint(err) {
			return ErrClientExists
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetOrCreateHeader returns the client's header, inserting an empty one if
// none exists. The UNIQUE client_id constraint makes repeated calls safe.
func (s *SQLite) GetOrCreateHeader(ctx context.Context, clientID string) (fna.Header, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fna.Header{}, false, fmt.Errorf("begin get-or-create: %w", err)
	}
	defer tx.Rollback()

	now := formatStamp(s.now())
	res, err := tx.ExecContext(ctx, `INSERT INTO fna_header (id, client_id, created_at, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(client_id) DO NOTHING`,
		uuid.NewString(), clientID, now, now)
	if err != nil {
		return fna.Header{}, false, fmt.Errorf("insert fna header: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fna.Header{}, false, fmt.Errorf("insert fna header: %w", err)
	}

	h, err := scanSQLiteHeader(tx.QueryRowContext(ctx, `SELECT `+strings.Join(headerColumns, ", ")+` FROM fna_header WHERE client_id = ?`, clientID))
	if err != nil {
		return fna.Header{}, false, fmt.Errorf("get fna header: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fna.Header{}, false, fmt.Errorf("commit get-or-create: %w", err)
	}
	return h, inserted == 1, nil
}

// HeaderByClient retrieves the header for a client.
func (s *SQLite) HeaderByClient(ctx context.Context, clientID string) (fna.Header, error) {
	h, err := scanSQLiteHeader(s.db.QueryRowContext(ctx, `SELECT `+strings.Join(headerColumns, ", ")+` FROM fna_header WHERE client_id = ?`, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fna.Header{}, ErrNotFound
		}
		return fna.Header{}, fmt.Errorf("get fna header: %w", err)
	}
	return h, nil
}

// UpdateHeader writes every mutable column of h.
func (s *SQLite) UpdateHeader(ctx context.Context, h fna.Header) error {
	set := make([]string, 0, len(mutableColumns)+1)
	for _, col := range mutableColumns {
		set = append(set, col+" = ?")
	}
	set = append(set, "updated_at = ?")
	args := append(updateArgs(h), formatStamp(h.UpdatedAt), h.ID)

	res, err := s.db.ExecContext(ctx, `UPDATE fna_header SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update fna header: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSessions returns dashboard sessions newest first.
func (s *SQLite) ListSessions(ctx context.Context) ([]fna.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, household_income, dependents FROM fna_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []fna.Session
	for rows.Next() {
		sess, err := scanSQLiteSession(rows)
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
func (s *SQLite) SessionByID(ctx context.Context, id string) (fna.Session, error) {
	sess, err := scanSQLiteSession(s.db.QueryRowContext(ctx, `SELECT id, created_at, household_income, dependents FROM fna_sessions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fna.Session{}, ErrNotFound
		}
		return fna.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// CreateSession inserts a dashboard session row.
func (s *SQLite) CreateSession(ctx context.Context, sess *fna.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO fna_sessions (id, created_at, household_income, dependents) VALUES (?, ?, ?, ?)`,
		sess.ID, formatStamp(sess.CreatedAt), sess.HouseholdIncome, sess.Dependents)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func scanSQLiteHeader(rs rowScanner) (fna.Header, error) {
	var r headerRow
	var created, updated string
	if err := rs.Scan(r.dest(&created, &updated)...); err != nil {
		return fna.Header{}, err
	}
	h := r.header()
	h.CreatedAt = parseStamp(created)
	h.UpdatedAt = parseStamp(updated)
	return h, nil
}

func scanSQLiteSession(rs rowScanner) (fna.Session, error) {
	var sess fna.Session
	var created string
	var income decimal.NullDecimal
	var dependents sql.NullInt64
	if err := rs.Scan(&sess.ID, &created, &income, &dependents); err != nil {
		return fna.Session{}, err
	}
	sess.CreatedAt = parseStamp(created)
	sess.HouseholdIncome = income.Decimal
	sess.Dependents = int(dependents.Int64)
	return sess, nil
}

func formatStamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

func parseStamp(value string) time.Time {
	for _, layout := range []string{stampLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
