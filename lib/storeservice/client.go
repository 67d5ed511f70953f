// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storeservice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bureau-foundation/fieldreport/lib/codec"
	"github.com/bureau-foundation/fieldreport/lib/netutil"
	"github.com/bureau-foundation/fieldreport/lib/remotestore"
)

// StatusError is an error answer from the service.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (err *StatusError) Error() string {
	if err.Code == "" {
		return fmt.Sprintf("store service: HTTP %d: %s", err.StatusCode, err.Message)
	}
	return fmt.Sprintf("store service: %s (HTTP %d): %s", err.Code, err.StatusCode, err.Message)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// URL is the service base URL, e.g. "https://store.example.org".
	URL string

	// Token is sent as a bearer token when non-empty.
	Token string

	// Timeout bounds each request. Defaults to 30 seconds. Ignored
	// when HTTPClient is set.
	Timeout time.Duration

	HTTPClient *http.Client
}

// Client is a remotestore.Store backed by the store service.
type Client struct {
	base   *url.URL
	token  string
	client *http.Client
}

var (
	_ remotestore.Store        = (*Client)(nil)
	_ remotestore.TableCreator = (*Client)(nil)
)

// NewClient returns a client for config.
func NewClient(config ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(config.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing store service URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("store service URL %q must be http or https", config.URL)
	}
	client := config.HTTPClient
	if client == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{base: base, token: config.Token, client: client}, nil
}

// Health checks that the service answers.
func (c *Client) Health(ctx context.Context) error {
	var response healthResponse
	return c.do(ctx, http.MethodGet, "/health", "", nil, &response)
}

func (c *Client) CreateTable(ctx context.Context, table string, columns []string) error {
	return c.do(ctx, http.MethodPost, "/v1/tables", table, createTableRequest{Name: table, Columns: columns}, nil)
}

func (c *Client) Append(ctx context.Context, table string, rows ...remotestore.Row) error {
	return c.do(ctx, http.MethodPost, rowsPath(table), table, rowsBody{Rows: rows}, nil)
}

func (c *Client) Scan(ctx context.Context, table string) ([]remotestore.Row, error) {
	var response rowsBody
	if err := c.do(ctx, http.MethodGet, rowsPath(table), table, nil, &response); err != nil {
		return nil, err
	}
	return response.Rows, nil
}

func (c *Client) Update(ctx context.Context, table string, keyColumn int, key string, row remotestore.Row) (int, error) {
	var response updateResponse
	request := updateRequest{KeyColumn: keyColumn, Key: key, Row: row}
	if err := c.do(ctx, http.MethodPut, rowsPath(table), table, request, &response); err != nil {
		return 0, err
	}
	return response.Updated, nil
}

func rowsPath(table string) string {
	return "/v1/tables/" + url.PathEscape(table) + "/rows"
}

// do sends one request. table names the table for error mapping.
func (c *Client) do(ctx context.Context, method, path, table string, body, response any) error {
	var reader io.Reader
	if body != nil {
		data, err := codec.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	request.Header.Set("Accept", codec.ContentType)
	if body != nil {
		request.Header.Set("Content-Type", codec.ContentType)
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResponse, err := c.client.Do(request)
	if err != nil {
		return remotestore.Transient(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode >= 300 {
		return statusFailure(httpResponse, table)
	}
	if response == nil || httpResponse.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := netutil.DecodeCBOR(httpResponse.Body, response); err != nil {
		if netutil.IsNetworkError(err) {
			return remotestore.Transient(fmt.Errorf("reading %s %s: %w", method, path, err))
		}
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func statusFailure(response *http.Response, table string) error {
	failure := &StatusError{StatusCode: response.StatusCode}
	raw := netutil.ErrorBody(response.Body)
	var decoded errorResponse
	if err := codec.Unmarshal([]byte(raw), &decoded); err == nil && decoded.Code != "" {
		failure.Code = decoded.Code
		failure.Message = decoded.Message
	} else {
		failure.Message = strings.TrimSpace(raw)
	}

	switch {
	case failure.Code == codeNoSuchTable:
		return fmt.Errorf("%w (%w)", remotestore.NoSuchTable(table), failure)
	case failure.Code == codeUnsupported:
		return failure
	case response.StatusCode >= 500:
		return remotestore.Transient(failure)
	default:
		return failure
	}
}
