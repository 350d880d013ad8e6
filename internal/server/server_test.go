package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"foldbench/internal/config"
	"foldbench/internal/db"
	"foldbench/internal/domain"
	"foldbench/internal/engine"
	"foldbench/internal/migrate"
)

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	for _, item := range []domain.WorkItem{
		{ItemID: "dom-a", Accession: "P10001", ResidueCount: 240, Confidence: 0.95, EvidenceCount: 4, Representative: true, CreatedAt: "2024-01-01T00:00:00Z"},
		{ItemID: "dom-b", Accession: "P10002", ResidueCount: 180, Confidence: 0.85, EvidenceCount: 2, Representative: true, CreatedAt: "2024-01-01T00:00:00Z"},
		{ItemID: "dom-c", Accession: "P10003", ResidueCount: 320, Confidence: 0.99, EvidenceCount: 6, Representative: true, CreatedAt: "2024-01-01T00:00:00Z"},
	} {
		if err := e.Repo.InsertWorkItem(context.Background(), item); err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v1",
		Auth:     AuthConfig{AllowLegacyCuratorHeader: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		Engine: e,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func asAlice(extra map[string]string) map[string]string {
	headers := map[string]string{"X-Curator-Id": "alice"}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions", map[string]any{"batch_size": 2}, asAlice(nil))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("allocate status %d: %s", res.StatusCode, string(data))
	}
	var alloc AllocationResponse
	if err := json.Unmarshal(data, &alloc); err != nil {
		t.Fatalf("unmarshal allocation: %v", err)
	}
	if len(alloc.Items) != 2 || alloc.Items[0].ItemID != "dom-c" || alloc.Items[1].ItemID != "dom-a" {
		t.Fatalf("expected best-first batch [dom-c dom-a], got %+v", alloc.Items)
	}
	sid := alloc.Session.SessionID

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions/"+sid+"/checkpoint", map[string]any{
		"cursor_index":   1,
		"reviewed_count": 1,
		"checkpoint":     map[string]any{"scroll": 120},
	}, asAlice(nil))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("checkpoint status %d: %s", res.StatusCode, string(data))
	}
	var cp CheckpointResponse
	if err := json.Unmarshal(data, &cp); err != nil {
		t.Fatalf("unmarshal checkpoint: %v", err)
	}
	if cp.LeasesRenewed != 2 {
		t.Fatalf("expected 2 leases renewed, got %d", cp.LeasesRenewed)
	}

	res, data = doJSON(t, client, http.MethodPut, srv.URL+"/v1/sessions/"+sid+"/decisions/dom-c", map[string]any{
		"keep":       true,
		"confidence": 0.9,
		"notes":      "well supported boundary",
	}, asAlice(nil))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("decision status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions/"+sid+"/finalize", map[string]any{"action": "commit"}, asAlice(nil))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("commit status %d: %s", res.StatusCode, string(data))
	}
	var done SessionResponse
	if err := json.Unmarshal(data, &done); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}
	if done.Status != "committed" {
		t.Fatalf("expected committed, got %s", done.Status)
	}

	// Retried commit is rejected.
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions/"+sid+"/finalize", map[string]any{"action": "commit"}, asAlice(nil))
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on retried commit, got %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "session_not_active" {
		t.Fatalf("expected session_not_active, got %q", envelope.Error.Code)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/work-items/dom-c", nil, asAlice(nil))
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get item status %d: %s", res.StatusCode, string(data))
	}
	var detail WorkItemDetailResponse
	if err := json.Unmarshal(data, &detail); err != nil {
		t.Fatalf("unmarshal item: %v", err)
	}
	if detail.Curation == nil || detail.Curation.CurationCount != 1 {
		t.Fatalf("expected a single fold, got %+v", detail.Curation)
	}
}

func TestAllocateExhaustionConflict(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions", map[string]any{"batch_size": 10}, asAlice(nil))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("allocate: %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions", map[string]any{"batch_size": 10}, map[string]string{"X-Curator-Id": "bob"})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", res.StatusCode, string(data))
	}
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Error.Code != "no_eligible_items" {
		t.Fatalf("expected no_eligible_items, got %q", envelope.Error.Code)
	}
}

func TestOwnershipEnforcedOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions", map[string]any{"batch_size": 1}, asAlice(nil))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("allocate: %d %s", res.StatusCode, string(data))
	}
	var alloc AllocationResponse
	_ = json.Unmarshal(data, &alloc)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/sessions/"+alloc.Session.SessionID+"/checkpoint", map[string]any{
		"cursor_index": 1, "reviewed_count": 0,
	}, map[string]string{"X-Curator-Id": "bob"})
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", res.StatusCode, string(data))
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/sessions", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", res.StatusCode, string(data))
	}

	// Health stays open.
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health: %d %s", res.StatusCode, string(data))
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/sessions/nope", nil, asAlice(nil))
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", res.StatusCode, string(data))
	}
}
