// Package cachekey derives canonical cache keys from image request filters.
//
// The key is the join point between the metadata store and the object store
// namespace, so it has to be stable: two requests that mean the same thing
// must map to the same key regardless of parameter order or the order of
// values inside a comma-separated list. Encode and Decode are pure inverses
// of each other because the refill path reconstructs the original filters
// from the stored key alone.
package cachekey

import (
	"errors"
	"sort"
	"strings"
)

// Default is the key used when no filter or dimension is supplied.
const Default = "default"

// ErrExclusiveFilters is returned when collections/topics are combined with a
// free-text query. The Unsplash random endpoint does not accept both.
var ErrExclusiveFilters = errors.New("cannot use collections/topics with query parameter")

// Params holds the five optional filter/dimension fields of an image request.
// Empty string means absent.
type Params struct {
	Collections string
	Topics      string
	Query       string
	Width       string
	Height      string
}

// Validate rejects invalid parameter combinations. It is the caller's gate
// before any store or upstream I/O happens.
func (p Params) Validate() error {
	if (p.Collections != "" || p.Topics != "") && p.Query != "" {
		return ErrExclusiveFilters
	}
	return nil
}

// Category returns the human-readable label used in response headers and
// logs: the active filter family, or "random" when unfiltered.
func (p Params) Category() string {
	switch {
	case p.Topics != "":
		return "topics: " + p.Topics
	case p.Query != "":
		return "query: " + p.Query
	case p.Collections != "":
		return "collections: " + p.Collections
	}
	return "random"
}

// sortList normalizes a comma-separated value: split, trim, sort, rejoin.
func sortList(v string) string {
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// Encode produces the canonical cache key for p. Field names are emitted in
// lexicographic order; list-valued fields have their values sorted first.
// Width and height are scalars and pass through verbatim. All fields absent
// yields the literal "default".
func Encode(p Params) string {
	fields := []struct {
		name  string
		value string
		list  bool
	}{
		{"collections", p.Collections, true},
		{"height", p.Height, false},
		{"query", p.Query, true},
		{"topics", p.Topics, true},
		{"width", p.Width, false},
	}

	var parts []string
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		v := f.value
		if f.list {
			v = sortList(v)
		}
		parts = append(parts, f.name+"="+v)
	}

	if len(parts) == 0 {
		return Default
	}
	return strings.Join(parts, "&")
}

// Decode reconstructs the normalized parameters from a cache key produced by
// Encode. Unknown fields and malformed segments are ignored rather than
// rejected; the refill path only needs the filter semantics back.
func Decode(key string) Params {
	var p Params
	if key == Default || key == "" {
		return p
	}

	for _, part := range strings.Split(key, "&") {
		name, value, ok := strings.Cut(part, "=")
		if !ok || value == "" {
			continue
		}
		switch name {
		case "collections":
			p.Collections = value
		case "topics":
			p.Topics = value
		case "query":
			p.Query = value
		case "width":
			p.Width = value
		case "height":
			p.Height = value
		}
	}
	return p
}
