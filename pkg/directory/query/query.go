// Package query implements the small search language used to filter files:
// a free-form string of bare or quoted tokens, optionally prefixed with a
// category key (name:, owner:, type:, tag:), compiled into four term sets
// and evaluated against file metadata.
package query

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyTerm is returned by the builder methods when given an empty
// term. The free-text parser never produces empty tokens, so only
// programmatic construction can hit this.
var ErrEmptyTerm = errors.New("query term must not be empty")

// Query holds the four term sets of a compiled search query. An empty set
// matches everything in its category; the categories themselves are ANDed
// during matching.
//
// The zero value is not usable; construct queries with New or Parse.
type Query struct {
	names  map[string]struct{}
	owners map[string]struct{}
	types  map[string]struct{}
	tags   map[string]struct{}
}

// New returns an empty query that matches every file.
func New() *Query {
	return &Query{
		names:  make(map[string]struct{}),
		owners: make(map[string]struct{}),
		types:  make(map[string]struct{}),
		tags:   make(map[string]struct{}),
	}
}

// AddName adds a file-name term. Name terms match as case-insensitive
// substrings of the file name.
func (q *Query) AddName(term string) error {
	return add(q.names, term)
}

// AddOwner adds an owner term. Owner terms match as case-insensitive
// substrings of the file owner.
func (q *Query) AddOwner(term string) error {
	return add(q.owners, term)
}

// AddType adds a type term. Type terms match as case-insensitive
// substrings of the file's MIME-like type string.
func (q *Query) AddType(term string) error {
	return add(q.types, term)
}

// AddTag adds a tag term. Tags are opaque labels and match exactly,
// case included.
func (q *Query) AddTag(term string) error {
	return add(q.tags, term)
}

func add(set map[string]struct{}, term string) error {
	if term == "" {
		return ErrEmptyTerm
	}
	set[term] = struct{}{}
	return nil
}

// IsEmpty reports whether the query has no terms at all, i.e. matches
// every file.
func (q *Query) IsEmpty() bool {
	return len(q.names) == 0 && len(q.owners) == 0 && len(q.types) == 0 && len(q.tags) == 0
}

// Names returns the name terms in sorted order.
func (q *Query) Names() []string { return sorted(q.names) }

// Owners returns the owner terms in sorted order.
func (q *Query) Owners() []string { return sorted(q.owners) }

// Types returns the type terms in sorted order.
func (q *Query) Types() []string { return sorted(q.types) }

// Tags returns the tag terms in sorted order.
func (q *Query) Tags() []string { return sorted(q.tags) }

func sorted(set map[string]struct{}) []string {
	terms := make([]string, 0, len(set))
	for term := range set {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

func (q *Query) String() string {
	var parts []string
	for _, term := range q.Names() {
		parts = append(parts, "name:"+term)
	}
	for _, term := range q.Owners() {
		parts = append(parts, "owner:"+term)
	}
	for _, term := range q.Types() {
		parts = append(parts, "type:"+term)
	}
	for _, term := range q.Tags() {
		parts = append(parts, "tag:"+term)
	}
	return strings.Join(parts, " ")
}
