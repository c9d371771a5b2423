package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type clientOptions struct {
	server string
	token  string
}

func (o *clientOptions) validate() error {
	if o.token == "" {
		return errors.New("missing token: pass --token or set EASYLAW_TOKEN")
	}
	if _, err := url.Parse(o.server); err != nil {
		return fmt.Errorf("invalid --server: %w", err)
	}
	return nil
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type session struct {
	Id           string     `json:"id"`
	Mode         string     `json:"mode"`
	Status       string     `json:"status"`
	Title        *string    `json:"title"`
	MessageCount int        `json:"message_count"`
	CreatedAt    time.Time  `json:"created_at"`
	ClosedAt     *time.Time `json:"closed_at"`
}

type message struct {
	Seq       int64     `json:"seq"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type apiClient struct {
	opts *clientOptions
	http *http.Client
}

func newAPIClient(opts *clientOptions) *apiClient {
	return &apiClient{opts: opts, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, strings.TrimRight(c.opts.server, "/")+"/api"+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("unexpected response (%s): %w", resp.Status, err)
	}
	if !env.Success {
		if env.Error != "" {
			return fmt.Errorf("%s: %s", env.Error, env.Message)
		}
		return errors.New(env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *apiClient) wsURL() (string, error) {
	u, err := url.Parse(strings.TrimRight(c.opts.server, "/") + "/api/chat/v1/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", c.opts.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
