package fna

import (
	"strings"
	"time"
)

// Client is a read-only projection of a client registration.
type Client struct {
	ID        string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	CreatedAt time.Time
}

// FullName joins first and last name.
func (c Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c Client) matches(q string) bool {
	return strings.Contains(strings.ToLower(c.FirstName), q) ||
		strings.Contains(strings.ToLower(c.LastName), q) ||
		strings.Contains(strings.ToLower(c.Phone), q)
}
