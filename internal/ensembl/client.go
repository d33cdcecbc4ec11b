// Package ensembl fetches variant consequences from the Ensembl REST API.
package ensembl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultServer is the public Ensembl REST endpoint.
const DefaultServer = "https://rest.ensembl.org"

// DefaultRate is the default request rate in requests per second. The
// public server allows 15.
const DefaultRate = 10

// Client requests VEP annotations for variant IDs.
type Client struct {
	server     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a client for server that sends at most rps requests per
// second. rps <= 0 disables pacing.
func NewClient(server string, rps float64) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		server: strings.TrimRight(server, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for request tracing.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetHTTPClient replaces the HTTP client.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.httpClient = h
}

// Variant is one element of a VEP response.
type Variant struct {
	ID                     *string                 `json:"id"`
	Input                  *string                 `json:"input"`
	AlleleString           *string                 `json:"allele_string"`
	TranscriptConsequences []TranscriptConsequence `json:"transcript_consequences"`
}

// TranscriptConsequence is the effect of a variant on one transcript.
type TranscriptConsequence struct {
	TranscriptID     *string  `json:"transcript_id"`
	GeneID           *string  `json:"gene_id"`
	GeneSymbol       *string  `json:"gene_symbol"`
	ConsequenceTerms []string `json:"consequence_terms"`
}

// FetchVariant requests the VEP annotation of a variant ID such as
// "rs56116432". Any non-2xx response is returned as an error; failed
// requests are not retried.
func (c *Client) FetchVariant(ctx context.Context, id string) ([]Variant, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	u := fmt.Sprintf("%s/vep/human/id/%s", c.server, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("ensembl request", zap.String("url", u))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("REST API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("REST API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var variants []Variant
	if err := json.NewDecoder(resp.Body).Decode(&variants); err != nil {
		return nil, fmt.Errorf("decode REST response: %w", err)
	}
	return variants, nil
}
