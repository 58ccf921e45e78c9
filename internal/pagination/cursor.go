// Package pagination implements keyset cursors over (created_at, id).
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Cursor points at the last item of a page.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

// PageResult represents a paginated result set
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

var (
	ErrInvalidCursor = errors.New("invalid cursor format")
)

// EncodeCursor creates a URL-safe cursor from the last item ID and timestamp.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := lastID + "|" + timestamp.UTC().Format(time.RFC3339Nano)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor reverses EncodeCursor. An empty cursor decodes to nil.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	id, ts, ok := strings.Cut(string(decoded), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: id, Timestamp: timestamp}, nil
}

// NewPage builds a page from items fetched with limit+1. The extra item only
// signals that another page exists and is dropped.
func NewPage[T any](items []T, limit int, key func(T) (string, time.Time)) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	if limit <= 0 || len(items) <= limit {
		return PageResult[T]{Items: items}
	}

	items = items[:limit]
	id, ts := key(items[len(items)-1])
	return PageResult[T]{
		Items:   items,
		Cursor:  EncodeCursor(id, ts),
		HasMore: true,
	}
}
