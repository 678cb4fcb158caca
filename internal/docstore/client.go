package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docedit/internal/domain"
	"docedit/internal/secret"
)

// Client is the editor's domain.DocumentStore backed by the HTTP service.
// Every request carries the bearer credential from the secret store.
type Client struct {
	baseURL string
	secrets secret.SecretStore
	http    *http.Client
}

func NewClient(baseURL string, secrets secret.SecretStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secrets: secrets,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Create(ctx context.Context, doc *domain.Document) (string, error) {
	var res idResponse
	if err := c.do(ctx, http.MethodPost, "/api/documents", requestFor(doc), &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (c *Client) Update(ctx context.Context, id string, doc *domain.Document) error {
	return c.do(ctx, http.MethodPut, documentPath(id), requestFor(doc), nil)
}

func (c *Client) Get(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	if err := c.do(ctx, http.MethodGet, documentPath(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// documentPath escapes id so it always names a single path segment.
func documentPath(id string) string {
	return "/api/documents/" + url.PathEscape(id)
}

func requestFor(doc *domain.Document) *documentRequest {
	return &documentRequest{
		Title:    doc.Title,
		Theme:    doc.Theme,
		Overview: doc.Overview,
		Results:  doc.Results,
		Objects:  doc.Objects,
	}
}

// do sends one request. Transport failures and 5xx responses are
// *domain.NetworkError; 404 is domain.ErrNotFound.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := secret.Token(c.secrets); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	// Limit to 5MB.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return &domain.NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusUnauthorized:
		return &domain.NetworkError{Op: op, Err: fmt.Errorf("%s: %s", resp.Status, errorMessage(data))}
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s: %s: %s", op, resp.Status, errorMessage(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}
