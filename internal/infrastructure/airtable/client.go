// Package airtable is a minimal client for the Airtable REST API covering
// the record operations the catalog needs.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/property-listing-api/internal/config"
	"github.com/property-listing-api/internal/domain"
)

// pageSize is the largest page the API serves.
const pageSize = 100

type Client struct {
	baseURL string
	baseID  string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg config.Airtable, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		baseID:  cfg.BaseID,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Table returns a handle bound to one table of the base.
func (c *Client) Table(name string) *Table {
	return &Table{c: c, name: name}
}

type Table struct {
	c    *Client
	name string
}

type listResponse struct {
	Records []domain.Record `json:"records"`
	Offset  string          `json:"offset"`
}

type writeRequest struct {
	Fields   map[string]any `json:"fields"`
	Typecast bool           `json:"typecast"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (t *Table) Get(ctx context.Context, recordID string) (*domain.Record, error) {
	var rec domain.Record
	if err := t.c.do(ctx, http.MethodGet, t.recordPath(recordID), nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List pages through the table until MaxRecords records are collected or the
// table is exhausted.
func (t *Table) List(ctx context.Context, opts domain.ListOptions) ([]domain.Record, error) {
	q := url.Values{}
	for _, f := range opts.Fields {
		q.Add("fields[]", f)
	}
	if formula := Formula(opts.Equal, opts.CreatedAfter); formula != "" {
		q.Set("filterByFormula", formula)
	}
	if opts.MaxRecords > 0 {
		q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
		q.Set("pageSize", strconv.Itoa(min(opts.MaxRecords, pageSize)))
	}

	var records []domain.Record
	for {
		var page listResponse
		if err := t.c.do(ctx, http.MethodGet, t.tablePath(), q, nil, &page); err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.Offset == "" || (opts.MaxRecords > 0 && len(records) >= opts.MaxRecords) {
			break
		}
		q.Set("offset", page.Offset)
	}
	if opts.MaxRecords > 0 && len(records) > opts.MaxRecords {
		records = records[:opts.MaxRecords]
	}
	return records, nil
}

func (t *Table) Create(ctx context.Context, fields map[string]any) (*domain.Record, error) {
	var rec domain.Record
	body := writeRequest{Fields: fields, Typecast: true}
	if err := t.c.do(ctx, http.MethodPost, t.tablePath(), nil, body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update patches only the given fields.
func (t *Table) Update(ctx context.Context, recordID string, fields map[string]any) (*domain.Record, error) {
	var rec domain.Record
	body := writeRequest{Fields: fields, Typecast: true}
	if err := t.c.do(ctx, http.MethodPatch, t.recordPath(recordID), nil, body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *Table) Delete(ctx context.Context, recordID string) error {
	return t.c.do(ctx, http.MethodDelete, t.recordPath(recordID), nil, nil, nil)
}

func (t *Table) tablePath() string {
	return "/" + url.PathEscape(t.c.baseID) + "/" + url.PathEscape(t.name)
}

func (t *Table) recordPath(recordID string) string {
	return t.tablePath() + "/" + url.PathEscape(recordID)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Upstream("record store request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var ae apiError
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&ae)
		cause := fmt.Errorf("airtable %s %s: status %d %s %s", method, path, resp.StatusCode, ae.Error.Type, ae.Error.Message)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return &domain.Error{Kind: domain.ErrNotFound, Message: "record not found", Cause: cause}
		case http.StatusUnprocessableEntity:
			return &domain.Error{Kind: domain.ErrBadRequest, Message: "record store rejected the submitted fields", Cause: cause}
		default:
			return domain.Upstream("record store request failed", cause)
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Upstream("record store returned an unreadable response", err)
	}
	return nil
}
