package models

import (
	"context"
	"net/url"
	"strconv"

	"github.com/GyroTools/ehr-connector-go/internals/http"
)

// Page is the envelope returned by every list endpoint. Next and Previous
// are absolute links to the neighbouring pages, nil at either end.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (p *Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

func emptyPage[T any]() *Page[T] {
	return &Page[T]{Results: []T{}}
}

// ListOption adds a filter or ordering parameter to a list request.
type ListOption func(query url.Values)

// Search filters patients on name, medical record number and email.
func Search(q string) ListOption {
	return func(query url.Values) { query.Set("search", q) }
}

// Ordering sorts by field, prefixed with "-" for descending order.
func Ordering(field string) ListOption {
	return func(query url.Values) { query.Set("ordering", field) }
}

func PageNumber(n int) ListOption {
	return func(query url.Values) { query.Set("page", strconv.Itoa(n)) }
}

// ActiveOnly filters medications on their is_active flag.
func ActiveOnly(active bool) ListOption {
	return func(query url.Values) { query.Set("is_active", strconv.FormatBool(active)) }
}

// WithStatus filters appointments on their status.
func WithStatus(status AppointmentStatus) ListOption {
	return func(query url.Values) { query.Set("status", string(status)) }
}

func listQuery(opts []ListOption) url.Values {
	query := url.Values{}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// List fetches one page of a top level collection.
func List[T any](ctx context.Context, client *http.Client, resourceURL string, opts ...ListOption) (*Page[T], error) {
	page, err := http.Request[Page[T]](ctx, client, resourceURL, http.Options{Query: listQuery(opts)})
	if err != nil {
		return nil, err
	}
	if page == nil {
		return emptyPage[T](), nil
	}
	return page, nil
}

// ListForPatient fetches one page of a child collection. Child resources are
// always scoped to a single patient.
func ListForPatient[T any](ctx context.Context, client *http.Client, resourceURL string, patientID int, opts ...ListOption) (*Page[T], error) {
	opts = append([]ListOption{func(query url.Values) { query.Set("patient", strconv.Itoa(patientID)) }}, opts...)
	return List[T](ctx, client, resourceURL, opts...)
}

// NextPage follows the envelope's next link. It returns nil at the last page.
func NextPage[T any](ctx context.Context, client *http.Client, page *Page[T]) (*Page[T], error) {
	if !page.HasNext() {
		return nil, nil
	}
	next, err := http.Request[Page[T]](ctx, client, *page.Next, http.Options{})
	if err != nil {
		return nil, err
	}
	if next == nil {
		return emptyPage[T](), nil
	}
	return next, nil
}
