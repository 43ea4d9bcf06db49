// Package search is the demo component for query-string binding, live
// debounced properties, and datetime casts: a paginated post search.
package search

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/vk/wirestate/internal/engine"
	"github.com/vk/wirestate/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// pageSize is the number of post titles per results page.
const pageSize = 3

// post is one entry in the demo dataset.
type post struct {
	Title     string
	Published time.Time
}

var posts = []post{
	{Title: "Taming cats with structured logging", Published: mustDate("2024-02-10")},
	{Title: "Cats and the art of cache invalidation", Published: mustDate("2024-05-01")},
	{Title: "A field guide to flaky tests", Published: mustDate("2024-06-18")},
	{Title: "Graceful shutdown for impatient people", Published: mustDate("2024-09-03")},
	{Title: "Why your cats ignore your schema migrations", Published: mustDate("2025-01-22")},
	{Title: "Herding cats across availability zones", Published: mustDate("2025-05-02")},
	{Title: "Debouncing keystrokes without losing the last one", Published: mustDate("2025-03-14")},
	{Title: "Query strings are an API", Published: mustDate("2025-07-30")},
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ResultsInput carries the property values for the 'results' derivation.
type ResultsInput struct {
	Search         string    `wire:"search"`
	Page           int       `wire:"page"`
	PublishedAfter time.Time `wire:"published_after"`
}

// ComputeResults filters the dataset by case-insensitive substring and
// publication date, then returns the requested page of titles.
func ComputeResults(ctx context.Context, input *ResultsInput) ([]string, error) {
	needle := strings.ToLower(strings.TrimSpace(input.Search))

	var matched []string
	for _, p := range posts {
		if needle != "" && !strings.Contains(strings.ToLower(p.Title), needle) {
			continue
		}
		if !input.PublishedAfter.IsZero() && !p.Published.After(input.PublishedAfter) {
			continue
		}
		matched = append(matched, p.Title)
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []string{}, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// ClearInput is empty: the 'clear' action takes no arguments.
type ClearInput struct{}

// OnClear resets the search form back to its defaults.
func OnClear(ctx context.Context, c *engine.Ctx, input *ClearInput) error {
	return c.Reset("search", "page", "published_after")
}

// OpenInput defines the arguments for the 'open' action.
type OpenInput struct {
	Title string `wire:"title"`
}

// OnOpen redirects the client to the page of a post picked from the results.
func OnOpen(ctx context.Context, c *engine.Ctx, input *OpenInput) error {
	for _, p := range posts {
		if p.Title == input.Title {
			c.Redirect("/posts/" + slugify(p.Title))
			return nil
		}
	}
	return fmt.Errorf("no post titled %q", input.Title)
}

func slugify(title string) string {
	slug := strings.ToLower(title)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, slug)
	return strings.Trim(slug, "-")
}

// Register registers the handlers with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComputed("ComputeSearchResults", &registry.RegisteredComputed{
		NewInput:  func() any { return new(ResultsInput) },
		InputType: reflect.TypeOf(ResultsInput{}),
		Fn:        ComputeResults,
	})
	r.RegisterAction("OnClearSearch", &registry.RegisteredAction{
		NewInput:  func() any { return new(ClearInput) },
		InputType: reflect.TypeOf(ClearInput{}),
		Fn:        OnClear,
	})
	r.RegisterAction("OnOpenPost", &registry.RegisteredAction{
		NewInput:  func() any { return new(OpenInput) },
		InputType: reflect.TypeOf(OpenInput{}),
		Fn:        OnOpen,
	})
}
