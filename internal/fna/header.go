package fna

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Household holds identity and address details.
type Household struct {
	SpouseName string
	Address    string
	City       string
	State      string
	Zip        string
}

// FamilyPlan captures plans for more children.
type FamilyPlan struct {
	MoreChildrenPlanned TriState
	MoreChildrenCount   sql.NullInt64
}

// Goals is the free-text goals section.
type Goals struct {
	Text            string
	OwnOrRent       string
	PropertiesNotes string
}

// Assets flags.
type Assets struct {
	HasOld401k     TriState
	ExpectsLumpSum TriState
}

// InsuranceNeeds are the inputs to a life insurance needs estimate.
type InsuranceNeeds struct {
	Debt              decimal.NullDecimal
	IncomeReplacement decimal.NullDecimal
	Mortgage          decimal.NullDecimal
	Education         decimal.NullDecimal
	InPlace           decimal.NullDecimal
}

// IncomePlan covers retirement needs and the next appointment.
type IncomePlan struct {
	RetirementMonthlyNeed decimal.NullDecimal
	MonthlyCommitment     decimal.NullDecimal
	NextAppointmentDate   sql.NullString
	NextAppointmentTime   sql.NullString
}

// Header is the single FNA row kept per client.
type Header struct {
	ID        string
	ClientID  string
	Household Household
	Family    FamilyPlan
	Goals     Goals
	Assets    Assets
	Insurance InsuranceNeeds
	Income    IncomePlan
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewHeader returns a header for clientID with every optional field unset.
func NewHeader(id, clientID string, now time.Time) Header {
	return Header{ID: id, ClientID: clientID, CreatedAt: now, UpdatedAt: now}
}
