package server

import (
	"encoding/json"

	"foldbench/internal/domain"
	"foldbench/internal/engine"
)

// Request payloads

type AllocateSessionRequest struct {
	BatchSize int `json:"batch_size,omitempty" minimum:"0"`
}

type CheckpointRequest struct {
	CursorIndex   int             `json:"cursor_index" minimum:"0"`
	ReviewedCount int             `json:"reviewed_count" minimum:"0"`
	Checkpoint    json.RawMessage `json:"checkpoint,omitempty"`
}

type FinalizeRequest struct {
	Action string `json:"action" enum:"commit,discard,revisit"`
}

type DecisionRequest struct {
	Keep       bool            `json:"keep"`
	Confidence float64         `json:"confidence,omitempty" minimum:"0" maximum:"1"`
	Notes      string          `json:"notes,omitempty"`
	Evidence   json.RawMessage `json:"evidence,omitempty"`
}

// Response payloads

type WorkItemResponse struct {
	ItemID         string  `json:"item_id"`
	Accession      string  `json:"accession,omitempty"`
	ResidueCount   int     `json:"residue_count"`
	Confidence     float64 `json:"confidence"`
	EvidenceCount  int     `json:"evidence_count"`
	Representative bool    `json:"representative"`
	Curated        bool    `json:"curated"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
}

type SessionResponse struct {
	SessionID     string          `json:"session_id"`
	CuratorID     string          `json:"curator_id"`
	Status        string          `json:"status" enum:"in_progress,abandoned,committed,discarded,completed"`
	TargetSize    int             `json:"target_size"`
	AssignedItems []string        `json:"assigned_items"`
	CursorIndex   int             `json:"cursor_index"`
	ReviewedCount int             `json:"reviewed_count"`
	Checkpoint    json.RawMessage `json:"checkpoint,omitempty"`
	CreatedAt     string          `json:"created_at" format:"date-time"`
	UpdatedAt     string          `json:"updated_at" format:"date-time"`
	EndedAt       *string         `json:"ended_at,omitempty" format:"date-time"`
}

type AllocationResponse struct {
	Session SessionResponse    `json:"session"`
	Items   []WorkItemResponse `json:"items"`
}

type CheckpointResponse struct {
	Session       SessionResponse `json:"session"`
	LeasesRenewed int             `json:"leases_renewed"`
	LeaseExpires  string          `json:"lease_expires,omitempty" format:"date-time"`
}

type ResumeResponse struct {
	Session   SessionResponse    `json:"session"`
	Items     []WorkItemResponse `json:"items"`
	Decisions []DecisionResponse `json:"decisions"`
	Dropped   []string           `json:"dropped_items,omitempty"`
}

type DecisionResponse struct {
	SessionID  string          `json:"session_id"`
	ItemID     string          `json:"item_id"`
	Keep       bool            `json:"keep"`
	Confidence float64         `json:"confidence"`
	Notes      string          `json:"notes,omitempty"`
	Evidence   json.RawMessage `json:"evidence,omitempty"`
	UpdatedAt  string          `json:"updated_at" format:"date-time"`
}

type CurationStatusResponse struct {
	IsCurated     bool   `json:"is_curated"`
	LastCuratorID string `json:"last_curator_id,omitempty"`
	LastCuratedAt string `json:"last_curated_at,omitempty" format:"date-time"`
	CurationCount int    `json:"curation_count"`
}

type WorkItemDetailResponse struct {
	WorkItemResponse
	Lease    *LeaseResponse          `json:"lease,omitempty"`
	Curation *CurationStatusResponse `json:"curation,omitempty"`
}

type LeaseResponse struct {
	ItemID     string `json:"item_id"`
	CuratorID  string `json:"curator_id"`
	SessionID  string `json:"session_id"`
	AcquiredAt string `json:"acquired_at" format:"date-time"`
	ExpiresAt  string `json:"expires_at" format:"date-time"`
}

type EventResponse struct {
	ID         int64           `json:"id"`
	TS         string          `json:"ts" format:"date-time"`
	Type       string          `json:"type"`
	EntityKind string          `json:"entity_kind"`
	EntityID   string          `json:"entity_id,omitempty"`
	ActorID    string          `json:"actor_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type StatsResponse struct {
	WorkItems struct {
		Total   int `json:"total"`
		Curated int `json:"curated"`
	} `json:"work_items"`
	LiveLeases int            `json:"live_leases"`
	Sessions   map[string]int `json:"sessions"`
}

// Mapping helpers

func workItemResponse(w domain.WorkItem) WorkItemResponse {
	return WorkItemResponse{
		ItemID:         w.ItemID,
		Accession:      w.Accession,
		ResidueCount:   w.ResidueCount,
		Confidence:     w.Confidence,
		EvidenceCount:  w.EvidenceCount,
		Representative: w.Representative,
		Curated:        w.Curated,
		CreatedAt:      w.CreatedAt,
	}
}

func mapWorkItems(items []domain.WorkItem) []WorkItemResponse {
	res := make([]WorkItemResponse, 0, len(items))
	for _, w := range items {
		res = append(res, workItemResponse(w))
	}
	return res
}

func sessionResponse(s domain.Session) SessionResponse {
	resp := SessionResponse{
		SessionID:     s.SessionID,
		CuratorID:     s.CuratorID,
		Status:        s.Status,
		TargetSize:    s.TargetSize,
		AssignedItems: s.AssignedItems,
		CursorIndex:   s.CursorIndex,
		ReviewedCount: s.ReviewedCount,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		EndedAt:       s.EndedAt,
	}
	if resp.AssignedItems == nil {
		resp.AssignedItems = []string{}
	}
	if s.Checkpoint != nil {
		resp.Checkpoint = rawJSON(*s.Checkpoint)
	}
	return resp
}

func mapSessions(sessions []domain.Session) []SessionResponse {
	res := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, sessionResponse(s))
	}
	return res
}

func decisionResponse(d domain.Decision) DecisionResponse {
	resp := DecisionResponse{
		SessionID:  d.SessionID,
		ItemID:     d.ItemID,
		Keep:       d.Keep,
		Confidence: d.Confidence,
		Notes:      d.Notes,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.EvidenceJSON != nil {
		resp.Evidence = rawJSON(*d.EvidenceJSON)
	}
	return resp
}

func mapDecisions(decisions []domain.Decision) []DecisionResponse {
	res := make([]DecisionResponse, 0, len(decisions))
	for _, d := range decisions {
		res = append(res, decisionResponse(d))
	}
	return res
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    rawJSON(e.Payload),
	}
}

func resumeResponse(r engine.ResumeResult) ResumeResponse {
	return ResumeResponse{
		Session:   sessionResponse(r.Session),
		Items:     mapWorkItems(r.Items),
		Decisions: mapDecisions(r.Decisions),
		Dropped:   r.Dropped,
	}
}

// rawJSON passes stored JSON through untouched; anything invalid is
// re-encoded as a JSON string so responses stay well formed.
func rawJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return json.RawMessage(quoted)
}

func rawToStringPtr(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	s := string(raw)
	return &s
}
