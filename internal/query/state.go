// Package query holds the pagination, sort and filter state of a list view and
// encodes it into the canonical request shape.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// Direction of a sort.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var (
	ErrInvalidSortDir  = errors.New("query: sort direction must be asc or desc")
	ErrInvalidPageSize = errors.New("query: page size must be positive")
)

// State is the query of one list view. It is safe for concurrent use.
type State struct {
	mu         sync.RWMutex
	page       int
	pageSize   int
	sortKey    string
	sortDir    Direction
	filters    map[string]string
	totalPages int // 0 until a page has been fetched
	version    uint64
}

// Option configures a State at construction.
type Option func(*State)

// WithSort sets the initial sort. Invalid directions fall back to asc.
func WithSort(key string, dir Direction) Option {
	return func(s *State) {
		if dir != Asc && dir != Desc {
			dir = Asc
		}
		s.sortKey, s.sortDir = key, dir
	}
}

// WithFilter sets an initial filter.
func WithFilter(key, value string) Option {
	return func(s *State) {
		if value != "" {
			s.filters[key] = value
		}
	}
}

// New returns a State on page 1. Non-positive page sizes become 10.
func New(pageSize int, opts ...Option) *State {
	if pageSize <= 0 {
		pageSize = 10
	}
	s := &State{page: 1, pageSize: pageSize, sortDir: Asc, filters: map[string]string{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Page returns the current 1-based page.
func (s *State) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// PageSize returns the page size.
func (s *State) PageSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageSize
}

// Sort returns the sort key and direction.
func (s *State) Sort() (string, Direction) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortKey, s.sortDir
}

// Filter returns the value of a filter, "" when unset.
func (s *State) Filter(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters[key]
}

// Filters returns a copy of the filters.
func (s *State) Filters() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.filters))
	for k, v := range s.filters {
		out[k] = v
	}
	return out
}

// TotalPages returns the last known page count, 0 if none is known yet.
func (s *State) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalPages
}

// Version changes whenever the request shape changes.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// SetFilter updates a filter and resets to page 1. The page count of the
// previous result set is forgotten. An empty value removes the filter. Setting a filter to its current value changes nothing.
func (s *State) SetFilter(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filters[key] == value {
		return
	}
	if value == "" {
		delete(s.filters, key)
	} else {
		s.filters[key] = value
	}
	s.page = 1
	s.totalPages = 0
	s.version++
}

// SetSort updates the sort and resets to page 1.
func (s *State) SetSort(key string, dir Direction) error {
	if dir != Asc && dir != Desc {
		return fmt.Errorf("%w: %q", ErrInvalidSortDir, dir)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sortKey == key && s.sortDir == dir {
		return nil
	}
	s.sortKey, s.sortDir = key, dir
	s.page = 1
	s.totalPages = 0
	s.version++
	return nil
}

// SetPageSize changes the page size and resets to page 1.
func (s *State) SetPageSize(n int) error {
	if n <= 0 {
		return ErrInvalidPageSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pageSize == n {
		return nil
	}
	s.pageSize = n
	s.page = 1
	s.totalPages = 0
	s.version++
	return nil
}

// SetPage moves to page n. It is a no-op returning false when n < 1 or when
// n exceeds the known page count.
func (s *State) SetPage(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || (s.totalPages > 0 && n > s.totalPages) {
		return false
	}
	if n == s.page {
		return true
	}
	s.page = n
	s.version++
	return true
}

// NextPage is SetPage(page+1).
func (s *State) NextPage() bool { return s.SetPage(s.Page() + 1) }

// PrevPage is SetPage(page-1).
func (s *State) PrevPage() bool { return s.SetPage(s.Page() - 1) }

// HasNext reports whether a known later page exists.
func (s *State) HasNext() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page < max(1, s.totalPages)
}

// HasPrev reports whether page > 1.
func (s *State) HasPrev() bool { return s.Page() > 1 }

// SetTotalPages records the page count reported by the server. Zero is
// recorded as one.
func (s *State) SetTotalPages(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalPages = max(1, n)
}

// Values returns the request parameters.
func (s *State) Values() url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := url.Values{}
	v.Set("page", strconv.Itoa(s.page))
	v.Set("limit", strconv.Itoa(s.pageSize))
	if s.sortKey != "" {
		v.Set("sort", FormatSort(s.sortKey, s.sortDir))
	}
	for k, f := range s.filters {
		v.Set(k, f)
	}
	return v
}

// Encode returns the canonical query string (keys sorted).
func (s *State) Encode() string {
	return s.Values().Encode()
}

// FormatSort renders the wire form "key,dir".
func FormatSort(key string, dir Direction) string {
	return key + "," + string(dir)
}

// ParseSort parses "key,dir". A bare key sorts ascending.
func ParseSort(raw string) (string, Direction, error) {
	key, dir, found := strings.Cut(strings.TrimSpace(raw), ",")
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", fmt.Errorf("query: empty sort key in %q", raw)
	}
	if !found {
		return key, Asc, nil
	}
	d := Direction(strings.ToLower(strings.TrimSpace(dir)))
	if d != Asc && d != Desc {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortDir, dir)
	}
	return key, d, nil
}
