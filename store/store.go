// Package store talks to the wiki page store.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable wraps every failure to reach the store or to get a usable
// answer from it.
var ErrUnavailable = errors.New("page store unavailable")

// Order of page listing.
type Order string

const (
	OrderByTitle Order = "TITLE"
	OrderByPath  Order = "PATH"
)

// EntryRef identifies one page.
type EntryRef struct {
	ID     int    `json:"id"`
	Path   string `json:"path"`
	Title  string `json:"title"`
	Locale string `json:"locale"`
}

// Page is full page content at fetch time.
type Page struct {
	ID      int    `json:"id"`
	Path    string `json:"path"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Response is store verdict on mutation.
type Response struct {
	Succeeded bool   `json:"succeeded"`
	ErrorCode int    `json:"errorCode"`
	Slug      string `json:"slug"`
	Message   string `json:"message"`
}

// CreateRequest describes new page.
type CreateRequest struct {
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Editor      string   `json:"editor"`
	IsPublished bool     `json:"isPublished"`
	IsPrivate   bool     `json:"isPrivate"`
	Locale      string   `json:"locale"`
	Path        string   `json:"path"`
	Tags        []string `json:"tags"`
	Title       string   `json:"title"`
}

// CreateResult carries store verdict and, on success, created page.
type CreateResult struct {
	Response Response
	Page     *EntryRef
}

// Store is the page store API consumed by gallery. Mutation verdicts come
// back in Response, returned errors are reserved for requests which could not
// be completed.
type Store interface {
	List(ctx context.Context, limit int, order Order) ([]EntryRef, error)
	Fetch(ctx context.Context, id int) (Page, error)
	Create(ctx context.Context, req CreateRequest) (CreateResult, error)
	Delete(ctx context.Context, id int) (Response, error)
}

// RejectedError is returned when store responded but refused the operation.
type RejectedError struct {
	Op       string
	Response Response
}

func (e *RejectedError) Error() string {
	if e.Response.Message != "" {
		return e.Response.Message
	}
	slug := e.Response.Slug
	if slug == "" {
		slug = "unknown"
	}
	return fmt.Sprintf("%s failed (%s / %d)", e.Op, slug, e.Response.ErrorCode)
}

// Rejected checks response and returns *RejectedError for failed mutations.
func Rejected(op string, resp Response) error {
	if resp.Succeeded {
		return nil
	}
	return &RejectedError{Op: op, Response: resp}
}
