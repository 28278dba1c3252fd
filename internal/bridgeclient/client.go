// Package bridgeclient is a small facade over the bridge HTTP API for
// Go programs that embed or supervise the bridge. It mirrors the
// endpoints of the server, caches availability probes and never
// panics: every call reports failure through its result value.
package bridgeclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"print-bridge/internal/model"
)

const (
	// DefaultBaseURL is where a locally running bridge listens.
	DefaultBaseURL = "http://127.0.0.1:9723"

	statusCacheTTL = 5 * time.Second
	probeTimeout   = 2 * time.Second
)

// Result is the outcome of a print or drawer request.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client talks to a running bridge over loopback HTTP.
type Client struct {
	baseURL string
	http    *http.Client

	mu            sync.Mutex
	statusValue   bool
	statusExpires time.Time
}

// New returns a client for the given base URL. An empty baseURL uses
// DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CheckStatus reports whether the bridge is reachable. Probes are
// cached for a short interval so callers can gate every print attempt
// on it without hammering the local server. An unreachable bridge is
// cached as unavailable just like a healthy one.
func (c *Client) CheckStatus(ctx context.Context) bool {
	c.mu.Lock()
	if time.Now().Before(c.statusExpires) {
		v := c.statusValue
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	available := c.probe(ctx)

	c.mu.Lock()
	c.statusValue = available
	c.statusExpires = time.Now().Add(statusCacheTTL)
	c.mu.Unlock()

	return available
}

// Invalidate drops the cached availability so the next CheckStatus
// probes the bridge again.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.statusExpires = time.Time{}
	c.mu.Unlock()
}

func (c *Client) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListPrinters returns the printers the bridge can reach. A failure
// yields an empty list and the error.
func (c *Client) ListPrinters(ctx context.Context) ([]model.PrinterDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/printers", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Printers []model.PrinterDescriptor `json:"printers"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	return envelope.Data.Printers, nil
}

// PrintReceipt sends a structured receipt to the given printer.
func (c *Client) PrintReceipt(ctx context.Context, printerName string, receipt *model.Receipt) Result {
	return c.post(ctx, "/print", model.PrintJob{
		PrinterName: printerName,
		Receipt:     receipt,
	})
}

// PrintText sends plain text to the given printer.
func (c *Client) PrintText(ctx context.Context, printerName, text string) Result {
	return c.post(ctx, "/print", model.PrintJob{
		PrinterName: printerName,
		Text:        text,
	})
}

// PrintRaw sends pre-built printer bytes to the given printer.
func (c *Client) PrintRaw(ctx context.Context, printerName string, data []byte) Result {
	return c.post(ctx, "/print-raw", model.RawPrintJob{
		PrinterName: printerName,
		Data:        base64.StdEncoding.EncodeToString(data),
	})
}

// OpenDrawer fires the drawer kick pulse on the given printer.
func (c *Client) OpenDrawer(ctx context.Context, printerName string, pin *int) Result {
	return c.post(ctx, "/cash-drawer", model.DrawerJob{
		PrinterName: printerName,
		Pin:         pin,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Result{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{Error: fmt.Sprintf("bridge unreachable: %v", err)}
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool `json:"success"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Result{Error: fmt.Sprintf("invalid bridge response: %v", err)}
	}

	if !envelope.Success {
		msg := fmt.Sprintf("bridge returned status %d", resp.StatusCode)
		if envelope.Error != nil && envelope.Error.Message != "" {
			msg = envelope.Error.Message
		}
		return Result{Error: msg}
	}
	return Result{Success: true}
}
