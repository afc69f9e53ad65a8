// Package render produces the printable FNA document.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"fnaterm/internal/fna"
	"fnaterm/internal/storage"
)

// Error is a failed render. No bytes accompany it.
type Error struct {
	ID  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("render fna %s: %v", e.ID, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Renderer builds a PDF for a session id.
type Renderer struct {
	sessions fna.SessionSource
	loc      *time.Location
	now      func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLocation sets the zone used for printed dates.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClock overrides the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// New returns a renderer. sessions may be nil, in which case documents carry
// only the id.
func New(sessions fna.SessionSource, opts ...Option) *Renderer {
	r := &Renderer{sessions: sessions, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the complete document. The PDF is fully written to memory
// before it is returned; on error the result is nil.
func (r *Renderer) Render(ctx context.Context, id string) ([]byte, error) {
	var sess *fna.Session
	if r.sessions != nil {
		found, err := r.sessions.SessionByID(ctx, id)
		switch {
		case err == nil:
			sess = &found
		case errors.Is(err, storage.ErrNotFound):
		default:
			return nil, &Error{ID: id, Err: err}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{ID: id, Err: err}
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle("FNA "+id, false)
	pdf.SetCreator("fna-term", false)
	pdf.SetCreationDate(r.now())
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Financial Needs Analysis", "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 8, "FNA PDF for ID: "+id, "", 1, "L", false, 0, "")

	if sess != nil {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 12)
		rows := [][2]string{
			{"Created", sess.CreatedAt.In(r.loc).Format("Jan 02, 2006 15:04 MST")},
			{"Household income", fna.FormatCurrency(sess.HouseholdIncome)},
			{"Dependents", strconv.Itoa(sess.Dependents)},
		}
		for _, row := range rows {
			pdf.CellFormat(50, 7, row[0]+":", "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
		}
	}

	pdf.SetY(-25)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Generated "+r.now().In(r.loc).Format(time.RFC1123), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &Error{ID: id, Err: err}
	}
	return buf.Bytes(), nil
}

// Filename is the suggested download name for id.
func Filename(id string) string {
	return "fna-" + id + ".pdf"
}
