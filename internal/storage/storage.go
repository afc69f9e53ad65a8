package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fnaterm/internal/fna"
)

// Store is the Session Store: client registrations, FNA headers and sessions.
type Store interface {
	fna.ClientLister
	fna.HeaderStore
	fna.SessionSource
	Close() error
}

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrClientExists indicates a duplicate client id.
	ErrClientExists = errors.New("client already exists")
)

// Open connects to the backend named by url. postgres:// and postgresql:// URLs
// use the hosted backend; sqlite: URLs and bare paths use a local file.
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return OpenPostgres(ctx, url)
	case strings.HasPrefix(url, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite:"))
	case strings.Contains(url, "://"):
		return nil, fmt.Errorf("unsupported backend url %q", url)
	default:
		return OpenSQLite(ctx, url)
	}
}

// headerColumns is shared by both backends; the Postgres queries cast the date
// and time columns to text.
var headerColumns = []string{
	"id", "client_id",
	"spouse_name", "address", "city", "state", "zip_code",
	"more_children_planned", "more_children_count",
	"goals_text", "own_or_rent", "properties_notes",
	"has_old_401k", "expects_lump_sum",
	"li_debt", "li_income", "li_mortgage", "li_education", "li_insurance_in_place",
	"retirement_monthly_need", "monthly_commitment",
	"next_appointment_date", "next_appointment_time",
	"created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

// headerRow collects nullable text columns before they land in a fna.Header.
type headerRow struct {
	h                                 fna.Header
	spouse, address, city, state, zip sql.NullString
	goals, ownOrRent, propertiesNotes sql.NullString
}

// dest lists scan targets in headerColumns order. created and updated differ
// per backend.
func (r *headerRow) dest(created, updated any) []any {
	h := &r.h
	return []any{
		&h.ID, &h.ClientID,
		&r.spouse, &r.address, &r.city, &r.state, &r.zip,
		&h.Family.MoreChildrenPlanned, &h.Family.MoreChildrenCount,
		&r.goals, &r.ownOrRent, &r.propertiesNotes,
		&h.Assets.HasOld401k, &h.Assets.ExpectsLumpSum,
		&h.Insurance.Debt, &h.Insurance.IncomeReplacement, &h.Insurance.Mortgage,
		&h.Insurance.Education, &h.Insurance.InPlace,
		&h.Income.RetirementMonthlyNeed, &h.Income.MonthlyCommitment,
		&h.Income.NextAppointmentDate, &h.Income.NextAppointmentTime,
		created, updated,
	}
}

func (r *headerRow) header() fna.Header {
	h := r.h
	h.Household = fna.Household{
		SpouseName: nullStringToString(r.spouse),
		Address:    nullStringToString(r.address),
		City:       nullStringToString(r.city),
		State:      nullStringToString(r.state),
		Zip:        nullStringToString(r.zip),
	}
	h.Goals = fna.Goals{
		Text:            nullStringToString(r.goals),
		OwnOrRent:       nullStringToString(r.ownOrRent),
		PropertiesNotes: nullStringToString(r.propertiesNotes),
	}
	return h
}

// updateArgs lists every mutable column value in headerColumns order, without
// id, client_id or created_at.
func updateArgs(h fna.Header) []any {
	return []any{
		nullString(h.Household.SpouseName), nullString(h.Household.Address), nullString(h.Household.City),
		nullString(h.Household.State), nullString(h.Household.Zip),
		h.Family.MoreChildrenPlanned, h.Family.MoreChildrenCount,
		nullString(h.Goals.Text), nullString(h.Goals.OwnOrRent), nullString(h.Goals.PropertiesNotes),
		h.Assets.HasOld401k, h.Assets.ExpectsLumpSum,
		h.Insurance.Debt, h.Insurance.IncomeReplacement, h.Insurance.Mortgage,
		h.Insurance.Education, h.Insurance.InPlace,
		h.Income.RetirementMonthlyNeed, h.Income.MonthlyCommitment,
		h.Income.NextAppointmentDate, h.Income.NextAppointmentTime,
	}
}

// mutableColumns are the columns written by updateArgs.
var mutableColumns = headerColumns[2 : len(headerColumns)-2]

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
