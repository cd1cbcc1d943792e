/*
web.go Webhook client. Saved documents are POSTed as JSON to a remote URL, and the last
published document can be fetched back from the same URL.
*/

package web

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/ohowland/gridflow/internal/pkg/codec"
	"github.com/ohowland/gridflow/internal/pkg/database"
	"github.com/ohowland/gridflow/internal/pkg/grid"
)

// Config of the webhook. Timeout is in milliseconds.
type Config struct {
	Enabled bool   `json:"Enabled" yaml:"enabled"`
	URL     string `json:"URL" yaml:"url"`
	Timeout int    `json:"Timeout" yaml:"timeout"`
}

const contentType = "application/json; charset=UTF-8"

// Client posts documents to the webhook URL
type Client struct {
	config Config
	http   *http.Client
}

// New returns a webhook client for cfg
func New(cfg Config) *Client {
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Millisecond},
	}
}

// Save posts the document
func (c *Client) Save(ctx context.Context, m grid.GridMemento) error {
	body, err := codec.Encode(codec.JSON, m)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %v answered %v", c.config.URL, resp.Status)
	}
	return nil
}

// Load fetches the document from the webhook URL
func (c *Client) Load(ctx context.Context) (grid.GridMemento, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return grid.GridMemento{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return grid.GridMemento{}, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return grid.GridMemento{}, fmt.Errorf("%w: %v", database.ErrNoDocument, c.config.URL)
	case resp.StatusCode != http.StatusOK:
		return grid.GridMemento{}, fmt.Errorf("webhook %v answered %v", c.config.URL, resp.Status)
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return grid.GridMemento{}, err
	}
	return codec.Decode(codec.JSON, body)
}

// Close releases idle connections
func (c *Client) Close(ctx context.Context) error {
	c.http.CloseIdleConnections()
	return nil
}
