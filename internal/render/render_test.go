package render

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fnaterm/internal/fna"
	"fnaterm/internal/storage"
)

type sessionSource struct {
	sessions map[string]fna.Session
	err      error
}

func (s sessionSource) ListSessions(context.Context) ([]fna.Session, error) {
	return nil, s.err
}

func (s sessionSource) SessionByID(_ context.Context, id string) (fna.Session, error) {
	if s.err != nil {
		return fna.Session{}, s.err
	}
	sess, ok := s.sessions[id]
	if !ok {
		return fna.Session{}, storage.ErrNotFound
	}
	return sess, nil
}

func TestRenderIDOnly(t *testing.T) {
	out, err := New(nil).Render(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, bytes.Contains(out, []byte("%%EOF")))
}

func TestRenderWithSession(t *testing.T) {
	src := sessionSource{sessions: map[string]fna.Session{
		"abc123": {ID: "abc123", CreatedAt: time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC), HouseholdIncome: decimal.NewFromInt(85000), Dependents: 2},
	}}
	r := New(src, WithLocation(time.UTC), WithClock(func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }))

	withSession, err := r.Render(context.Background(), "abc123")
	require.NoError(t, err)
	missing, err := r.Render(context.Background(), "zzz999")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(missing, []byte("%PDF-")))
	assert.Greater(t, len(withSession), len(missing))
}

func TestRenderLookupFailure(t *testing.T) {
	r := New(sessionSource{err: errors.New("connection reset")})
	out, err := r.Render(context.Background(), "abc123")
	assert.Nil(t, out)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "abc123", rerr.ID)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := New(nil).Render(ctx, "abc123")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "fna-abc123.pdf", Filename("abc123"))
}
