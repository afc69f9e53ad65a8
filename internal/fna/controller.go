package fna

import (
	"context"
	"log"
	"sync"
	"time"
)

// HeaderStore is the persistence the controller needs.
type HeaderStore interface {
	// GetOrCreateHeader returns the header for clientID, creating it when none
	// exists. created reports whether this call inserted it.
	GetOrCreateHeader(ctx context.Context, clientID string) (h Header, created bool, err error)
	// UpdateHeader writes every field of h keyed by h.ID.
	UpdateHeader(ctx context.Context, h Header) error
}

// EventType names a header lifecycle event.
type EventType string

const (
	EventHeaderCreated EventType = "fna_header.created"
	EventHeaderSaved   EventType = "fna_header.saved"
)

// Event is emitted after a header is created or saved.
type Event struct {
	Type     EventType `json:"event"`
	HeaderID string    `json:"header_id"`
	ClientID string    `json:"client_id"`
	At       time.Time `json:"at"`
}

// Notifier receives header events. Failures are logged and otherwise ignored.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Selection identifies one client selection. Only the latest one may adopt a header.
type Selection struct {
	ClientID string
	gen      uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier publishes header events to n.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithClock overrides the clock used for update stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns the draft of the active client's header.
type Controller struct {
	store    HeaderStore
	notifier Notifier
	now      func() time.Time

	mu         sync.Mutex
	gen        uint64
	cancelLoad context.CancelFunc
	clientID   string
	header     *Header
	draft      Draft

	// saveMu serializes writes so each save carries the newest draft.
	saveMu sync.Mutex
}

// NewController constructs a controller over store.
func NewController(store HeaderStore, opts ...Option) *Controller {
	c := &Controller{store: store, now: time.Now, draft: NewDraft()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize loads or creates the header for clientID and adopts it.
func (c *Controller) Initialize(ctx context.Context, clientID string) (Header, error) {
	return c.Load(ctx, c.Begin(clientID))
}

// Begin starts a new selection, cancelling any load still in flight.
// The previous header identity is dropped until Load completes.
func (c *Controller) Begin(clientID string) Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
	c.clientID = clientID
	c.header = nil
	c.draft = NewDraft()
	return Selection{ClientID: clientID, gen: c.gen}
}

// Load resolves sel against the store. If another selection started in the
// meantime the result is discarded and ErrStaleSelection returned.
func (c *Controller) Load(ctx context.Context, sel Selection) (Header, error) {
	c.mu.Lock()
	if sel.gen != c.gen {
		c.mu.Unlock()
		return Header{}, ErrStaleSelection
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancelLoad = cancel
	c.mu.Unlock()

	h, created, err := c.store.GetOrCreateHeader(ctx, sel.ClientID)
	// The row exists now even if this selection is no longer wanted.
	if err == nil && created {
		c.notify(EventHeaderCreated, h)
	}

	c.mu.Lock()
	if sel.gen != c.gen {
		c.mu.Unlock()
		return Header{}, ErrStaleSelection
	}
	c.cancelLoad = nil
	if err != nil {
		c.mu.Unlock()
		return Header{}, &FetchError{Op: "load fna header", Err: err}
	}
	adopted := h
	c.header = &adopted
	c.draft = DraftFromHeader(h)
	c.mu.Unlock()
	return h, nil
}

// SetField updates one field of the draft. The store is not touched.
func (c *Controller) SetField(f Field, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Set(f, value)
}

// Save coerces the draft and writes the full header. The draft is kept as is
// whether or not the write succeeds.
func (c *Controller) Save(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.header == nil {
		c.mu.Unlock()
		return ErrNoHeader
	}
	base := *c.header
	draft := c.draft.clone()
	gen := c.gen
	c.mu.Unlock()

	h, err := draft.Apply(base)
	if err != nil {
		return &SaveError{Err: err}
	}
	h.UpdatedAt = c.now().UTC()
	if err := c.store.UpdateHeader(ctx, h); err != nil {
		return &SaveError{Err: err}
	}

	c.mu.Lock()
	if gen == c.gen {
		saved := h
		c.header = &saved
	}
	c.mu.Unlock()

	c.notify(EventHeaderSaved, h)
	return nil
}

// Header returns the adopted header as last loaded or saved.
func (c *Controller) Header() (Header, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.header == nil {
		return Header{}, false
	}
	return *c.header, true
}

// ClientID returns the client of the current selection.
func (c *Controller) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.clone()
}

// Text returns the draft value of a text-like field.
func (c *Controller) Text(f Field) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Text(f)
}

// Flag returns the draft value of a tri-state field.
func (c *Controller) Flag(f Field) TriState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Flag(f)
}

func (c *Controller) notify(t EventType, h Header) {
	if c.notifier == nil {
		return
	}
	e := Event{Type: t, HeaderID: h.ID, ClientID: h.ClientID, At: c.now().UTC()}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.notifier.Notify(ctx, e); err != nil {
			log.Printf("notify %s %s: %v", e.Type, e.HeaderID, err)
		}
	}()
}
