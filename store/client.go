package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peteklapka/wagipedia/config"
)

// ErrNotFound is returned by Fetch when page with requested id does not exist.
var ErrNotFound = errors.New("page not found")

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

const (
	listQuery = `query ($limit: Int!, $orderBy: PageOrderBy) {
  pages {
    list(limit: $limit, orderBy: $orderBy) { id path title locale }
  }
}`

	singleQuery = `query ($id: Int!) {
  pages {
    single(id: $id) { id path title content }
  }
}`

	createMutation = `mutation (
  $content: String!
  $description: String!
  $editor: String!
  $isPublished: Boolean!
  $isPrivate: Boolean!
  $locale: String!
  $path: String!
  $tags: [String]!
  $title: String!
) {
  pages {
    create(
      content: $content
      description: $description
      editor: $editor
      isPublished: $isPublished
      isPrivate: $isPrivate
      locale: $locale
      path: $path
      tags: $tags
      title: $title
    ) {
      responseResult { succeeded errorCode slug message }
      page { id path title locale }
    }
  }
}`

	deleteMutation = `mutation ($id: Int!) {
  pages {
    delete(id: $id) {
      responseResult { succeeded errorCode slug message }
    }
  }
}`
)

// Client is Store implementation over Wiki.js GraphQL API. Safe for
// concurrent use.
type Client struct {
	endpoint  string
	token     config.SecretString
	userAgent string
	timeout   time.Duration
	http      *http.Client
	log       *zap.Logger
}

// NewClient prepares client for the store at cfg.URL.
func NewClient(cfg *config.StoreConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint:  strings.TrimRight(cfg.URL, "/") + "/graphql",
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		// default transport is resolved on every request
		http: &http.Client{},
		log:  log.Named("store"),
	}
}

// Endpoint returns GraphQL endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// do executes single GraphQL operation and decodes data into out.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("unable to encode %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("unable to prepare %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token := c.token.Reveal(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}
	defer resp.Body.Close()

	c.log.Debug("GraphQL call", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(text))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s: GraphQL HTTP %d: %s", ErrUnavailable, op, resp.StatusCode, msg)
	}

	var payload gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("%w: %s: unable to decode response: %w", ErrUnavailable, op, err)
	}
	if len(payload.Errors) > 0 {
		msgs := make([]string, 0, len(payload.Errors))
		for _, e := range payload.Errors {
			msgs = append(msgs, e.Message)
		}
		return &RejectedError{Op: op, Response: Response{Message: strings.Join(msgs, "\n")}}
	}
	if out == nil || len(payload.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload.Data, out); err != nil {
		return fmt.Errorf("%w: %s: unexpected response data: %w", ErrUnavailable, op, err)
	}
	return nil
}

func (c *Client) List(ctx context.Context, limit int, order Order) ([]EntryRef, error) {
	var data struct {
		Pages struct {
			List []EntryRef `json:"list"`
		} `json:"pages"`
	}
	vars := map[string]any{"limit": limit, "orderBy": string(order)}
	if err := c.do(ctx, "list", listQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Pages.List, nil
}

func (c *Client) Fetch(ctx context.Context, id int) (Page, error) {
	var data struct {
		Pages struct {
			Single *Page `json:"single"`
		} `json:"pages"`
	}
	if err := c.do(ctx, "fetch", singleQuery, map[string]any{"id": id}, &data); err != nil {
		return Page{}, err
	}
	if data.Pages.Single == nil {
		return Page{}, fmt.Errorf("page %d: %w", id, ErrNotFound)
	}
	return *data.Pages.Single, nil
}

func (c *Client) Create(ctx context.Context, r CreateRequest) (CreateResult, error) {
	var data struct {
		Pages struct {
			Create struct {
				ResponseResult Response  `json:"responseResult"`
				Page           *EntryRef `json:"page"`
			} `json:"create"`
		} `json:"pages"`
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	vars := map[string]any{
		"content":     r.Content,
		"description": r.Description,
		"editor":      r.Editor,
		"isPublished": r.IsPublished,
		"isPrivate":   r.IsPrivate,
		"locale":      r.Locale,
		"path":        r.Path,
		"tags":        tags,
		"title":       r.Title,
	}
	if err := c.do(ctx, "create", createMutation, vars, &data); err != nil {
		return CreateResult{}, err
	}
	return CreateResult{Response: data.Pages.Create.ResponseResult, Page: data.Pages.Create.Page}, nil
}

func (c *Client) Delete(ctx context.Context, id int) (Response, error) {
	var data struct {
		Pages struct {
			Delete struct {
				ResponseResult Response `json:"responseResult"`
			} `json:"delete"`
		} `json:"pages"`
	}
	if err := c.do(ctx, "delete", deleteMutation, map[string]any{"id": id}, &data); err != nil {
		return Response{}, err
	}
	return data.Pages.Delete.ResponseResult, nil
}
