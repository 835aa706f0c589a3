// Package collection fetches one page of a list endpoint and normalises the
// backend's response conventions into Page[T].
package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"github.com/MikeMC777/storefront/internal/apiclient"
	"github.com/MikeMC777/storefront/internal/query"
)

// Page is one page of a list. Page is the page the server answered for,
// which can lie beyond TotalPages when the caller asked for one that does
// not exist.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// OutOfRange reports whether the page lies beyond the last page.
func (p Page[T]) OutOfRange() bool {
	return p.Page > max(1, p.TotalPages)
}

// Getter is the part of the request client the fetcher needs.
type Getter interface {
	GetRaw(ctx context.Context, path string, q url.Values) (json.RawMessage, error)
}

// envelopeKeys are the array keys the list endpoints use, in lookup order.
var envelopeKeys = []string{"items", "orders", "users", "products"}

// Fetch requests the page described by q from endpoint. Transport and HTTP
// failures come back as *apiclient.RequestError, unrecognised bodies as
// *apiclient.ParseError.
func Fetch[T any](ctx context.Context, g Getter, endpoint string, q *query.State) (Page[T], error) {
	var params url.Values
	requested := 1
	if q != nil {
		params = q.Values()
		requested = q.Page()
	}
	raw, err := g.GetRaw(ctx, endpoint, params)
	if err != nil {
		return Page[T]{}, err
	}
	return Normalize[T](endpoint, raw, requested)
}

// Normalize resolves the two accepted response shapes:
//   - a bare array is a single complete page (page 1 of 1) whatever was asked;
//   - an object carrying one of items/orders/users/products plus pages.
func Normalize[T any](endpoint string, raw json.RawMessage, requested int) (Page[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Page[T]{}, &apiclient.ParseError{Path: endpoint, Reason: "empty body"}
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page[T]{}, &apiclient.ParseError{Path: endpoint, Reason: "malformed array items", Err: err}
		}
		return Page[T]{Items: nonNil(items), Page: 1, TotalPages: 1}, nil
	case '{':
		return fromEnvelope[T](endpoint, trimmed, requested)
	default:
		return Page[T]{}, &apiclient.ParseError{Path: endpoint, Reason: "neither an array nor a pagination envelope"}
	}
}

func fromEnvelope[T any](endpoint string, raw []byte, requested int) (Page[T], error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Page[T]{}, &apiclient.ParseError{Path: endpoint, Reason: "malformed envelope", Err: err}
	}

	var list json.RawMessage
	for _, k := range envelopeKeys {
		if v, ok := fields[k]; ok && len(bytes.TrimSpace(v)) > 0 && bytes.TrimSpace(v)[0] == '[' {
			list = v
			break
		}
	}
	if list == nil {
		return Page[T]{}, &apiclient.ParseError{Path: endpoint, Reason: "envelope has no items/orders/users/products array"}
	}

	var items []T
	if err := json.Unmarshal(list, &items); err != nil {
		return Page[T]{}, &apiclient.ParseError{Path: endpoint, Reason: "malformed envelope items", Err: err}
	}

	pages := intField(fields, "pages")
	page := intField(fields, "page")
	if page < 1 {
		page = max(1, requested)
	}
	pages = max(1, pages)
	return Page[T]{Items: nonNil(items), Page: page, TotalPages: pages}, nil
}

func intField(fields map[string]json.RawMessage, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		return 0
	}
	return int(n)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
