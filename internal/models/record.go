package models

import (
	"strings"
	"time"
)

// Record carries the identifier and timestamps every parish record has.
// The server assigns all three.
type Record struct {
	ID        string    `json:"id" input:"-"`
	CreatedAt time.Time `json:"created_at" input:"-"`
	UpdatedAt time.Time `json:"updated_at" input:"-"`
}

// Meta returns the record's metadata for generic stores and services
func (r *Record) Meta() *Record {
	return r
}

// Entity is implemented by pointers to every parish record type
type Entity interface {
	Meta() *Record
	// DisplayName is the human label used in titles and messages
	DisplayName() string
	// SearchFields are the values matched by list search
	SearchFields() []string
}

// Matches reports whether any of e's search fields contains query, ignoring case
func Matches(e Entity, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range e.SearchFields() {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
