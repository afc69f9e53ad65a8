package fna

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Session is the dashboard projection of an analysis.
type Session struct {
	ID              string
	CreatedAt       time.Time
	HouseholdIncome decimal.Decimal
	Dependents      int
}

// SessionSource reads dashboard sessions.
type SessionSource interface {
	ListSessions(ctx context.Context) ([]Session, error)
	SessionByID(ctx context.Context, id string) (Session, error)
}
