package ui

import "fnaterm/internal/fna"

type clientsLoadedMsg struct {
	clients []fna.Client
	err     error
}

type headerLoadedMsg struct {
	sel    fna.Selection
	header fna.Header
	err    error
}

type headerSavedMsg struct {
	err error
}

// flashExpiredMsg clears a success message unless a newer one replaced it.
type flashExpiredMsg struct {
	seq int
}
