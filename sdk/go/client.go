package foldbenchsdk

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
)

// Client is a minimal Foldbench HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	CuratorID   string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// WorkItem represents the API work-item model.
type WorkItem struct {
	ItemID         string  `json:"item_id"`
	Accession      string  `json:"accession,omitempty"`
	ResidueCount   int     `json:"residue_count"`
	Confidence     float64 `json:"confidence"`
	EvidenceCount  int     `json:"evidence_count"`
	Representative bool    `json:"representative"`
	Curated        bool    `json:"curated"`
	CreatedAt      string  `json:"created_at"`
}

// Session represents a review session.
type Session struct {
	SessionID     string          `json:"session_id"`
	CuratorID     string          `json:"curator_id"`
	Status        string          `json:"status"`
	TargetSize    int             `json:"target_size"`
	AssignedItems []string        `json:"assigned_items"`
	CursorIndex   int             `json:"cursor_index"`
	ReviewedCount int             `json:"reviewed_count"`
	Checkpoint    json.RawMessage `json:"checkpoint,omitempty"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
	EndedAt       *string         `json:"ended_at,omitempty"`
}

// Allocation is the result of opening a session.
type Allocation struct {
	Session Session    `json:"session"`
	Items   []WorkItem `json:"items"`
}

// CheckpointResult reports a checkpoint and its lease renewal.
type CheckpointResult struct {
	Session       Session `json:"session"`
	LeasesRenewed int     `json:"leases_renewed"`
	LeaseExpires  string  `json:"lease_expires,omitempty"`
}

// Decision is one curation verdict.
type Decision struct {
	SessionID  string          `json:"session_id"`
	ItemID     string          `json:"item_id"`
	Keep       bool            `json:"keep"`
	Confidence float64         `json:"confidence"`
	Notes      string          `json:"notes,omitempty"`
	Evidence   json.RawMessage `json:"evidence,omitempty"`
	UpdatedAt  string          `json:"updated_at"`
}

// ResumeResult is the reloaded working set after a resume.
type ResumeResult struct {
	Session   Session    `json:"session"`
	Items     []WorkItem `json:"items"`
	Decisions []Decision `json:"decisions"`
	Dropped   []string   `json:"dropped_items,omitempty"`
}

// Event represents a log entry.
type Event struct {
	ID         int64           `json:"id"`
	TS         string          `json:"ts"`
	Type       string          `json:"type"`
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id,omitempty"`
	ActorID    string          `json:"actor_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Allocate opens a session over a fresh batch of work.
func (c *Client) Allocate(ctx context.Context, batchSize int) (Allocation, error) {
	var resp Allocation
	err := c.do(ctx, http.MethodPost, "v1/sessions", map[string]any{"batch_size": batchSize}, &resp)
	return resp, err
}

// GetSession fetches a session by id.
func (c *Client) GetSession(ctx context.Context, sessionID string) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodGet, "v1/sessions/"+url.PathEscape(sessionID), nil, &resp)
	return resp, err
}

// Checkpoint persists session progress and renews its leases.
func (c *Client) Checkpoint(ctx context.Context, sessionID string, cursorIndex, reviewedCount int, checkpoint any) (CheckpointResult, error) {
	body := map[string]any{
		"cursor_index":   cursorIndex,
		"reviewed_count": reviewedCount,
	}
	if checkpoint != nil {
		body["checkpoint"] = checkpoint
	}
	var resp CheckpointResult
	err := c.do(ctx, http.MethodPost, "v1/sessions/"+url.PathEscape(sessionID)+"/checkpoint", body, &resp)
	return resp, err
}

// Resume reloads an in-progress or abandoned session.
func (c *Client) Resume(ctx context.Context, sessionID string) (ResumeResult, error) {
	var resp ResumeResult
	err := c.do(ctx, http.MethodPost, "v1/sessions/"+url.PathEscape(sessionID)+"/resume", nil, &resp)
	return resp, err
}

// Finalize ends a session with commit, discard or revisit.
func (c *Client) Finalize(ctx context.Context, sessionID, action string) (Session, error) {
	var resp Session
	err := c.do(ctx, http.MethodPost, "v1/sessions/"+url.PathEscape(sessionID)+"/finalize", map[string]any{"action": action}, &resp)
	return resp, err
}

// RecordDecision upserts the verdict for one assigned item.
func (c *Client) RecordDecision(ctx context.Context, sessionID, itemID string, keep bool, confidence float64, notes string) (Decision, error) {
	body := map[string]any{
		"keep":       keep,
		"confidence": confidence,
		"notes":      notes,
	}
	var resp Decision
	endpoint := "v1/sessions/" + url.PathEscape(sessionID) + "/decisions/" + url.PathEscape(itemID)
	err := c.do(ctx, http.MethodPut, endpoint, body, &resp)
	return resp, err
}

// Events returns recent audit events, newest first.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v1/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	case c.CuratorID != "":
		req.Header.Set("X-Curator-Id", c.CuratorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
