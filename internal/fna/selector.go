package fna

import (
	"context"
	"strings"
)

// ClientLister fetches client registrations newest first.
type ClientLister interface {
	ListClients(ctx context.Context) ([]Client, error)
}

// FilterState distinguishes an empty result from an empty dataset.
type FilterState int

const (
	FilterOK FilterState = iota
	FilterNoMatches
	FilterEmptyDataset
)

// FilterResult is the outcome of Selector.Filter.
type FilterResult struct {
	Clients []Client
	State   FilterState
}

// Message is the placeholder text for an empty result.
func (r FilterResult) Message() string {
	switch r.State {
	case FilterNoMatches:
		return "No matching clients found."
	case FilterEmptyDataset:
		return "No clients in database yet."
	default:
		return ""
	}
}

// Selector holds the fetched client list and the active client.
type Selector struct {
	src     ClientLister
	clients []Client
	active  *Client
}

// NewSelector constructs a selector fed by src.
func NewSelector(src ClientLister) *Selector {
	return &Selector{src: src}
}

// List fetches every client, newest first. It does not change the selector;
// pass the result to Reset.
func (s *Selector) List(ctx context.Context) ([]Client, error) {
	clients, err := s.src.ListClients(ctx)
	if err != nil {
		return nil, &FetchError{Op: "load clients", Err: err}
	}
	return clients, nil
}

// Reset replaces the dataset.
func (s *Selector) Reset(clients []Client) {
	s.clients = clients
}

// Clients returns the dataset.
func (s *Selector) Clients() []Client {
	return s.clients
}

// Filter matches query case-insensitively against first name, last name or phone.
func (s *Selector) Filter(query string) FilterResult {
	if len(s.clients) == 0 {
		return FilterResult{State: FilterEmptyDataset}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return FilterResult{Clients: s.clients}
	}
	var out []Client
	for _, c := range s.clients {
		if c.matches(q) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return FilterResult{State: FilterNoMatches}
	}
	return FilterResult{Clients: out}
}

// Select makes c the active client. It reports false when c was already
// active, in which case the caller must not re-initialize.
func (s *Selector) Select(c Client) bool {
	if s.active != nil && s.active.ID == c.ID {
		return false
	}
	selected := c
	s.active = &selected
	return true
}

// Active returns the active client.
func (s *Selector) Active() (Client, bool) {
	if s.active == nil {
		return Client{}, false
	}
	return *s.active, true
}
