package domain

// WorkItem is a protein in the shared review pool. Rows are immutable after
// import except Curated, which the commit fold sets once.
type WorkItem struct {
	ItemID         string  `json:"item_id"`
	Accession      string  `json:"accession,omitempty"`
	ResidueCount   int     `json:"residue_count"`
	Confidence     float64 `json:"confidence"`
	EvidenceCount  int     `json:"evidence_count"`
	Representative bool    `json:"representative"`
	Curated        bool    `json:"curated"`
	CreatedAt      string  `json:"created_at" format:"date-time"`
}

// Lease is a time-bounded exclusive claim on a work item by one session.
type Lease struct {
	ItemID     string `json:"item_id"`
	CuratorID  string `json:"curator_id"`
	SessionID  string `json:"session_id"`
	AcquiredAt string `json:"acquired_at" format:"date-time"`
	ExpiresAt  string `json:"expires_at" format:"date-time"`
}

type Session struct {
	SessionID     string   `json:"session_id"`
	CuratorID     string   `json:"curator_id"`
	Status        string   `json:"status" enum:"in_progress,abandoned,committed,discarded,completed"`
	TargetSize    int      `json:"target_size"`
	AssignedItems []string `json:"assigned_items"`
	CursorIndex   int      `json:"cursor_index"`
	ReviewedCount int      `json:"reviewed_count"`
	Checkpoint    *string  `json:"checkpoint,omitempty"`
	CreatedAt     string   `json:"created_at" format:"date-time"`
	UpdatedAt     string   `json:"updated_at" format:"date-time"`
	EndedAt       *string  `json:"ended_at,omitempty" format:"date-time"`
}

// Decision is one curation verdict per (session, item); last write wins
// while the session is in progress.
type Decision struct {
	SessionID    string  `json:"session_id"`
	ItemID       string  `json:"item_id"`
	Keep         bool    `json:"keep"`
	Confidence   float64 `json:"confidence"`
	Notes        string  `json:"notes,omitempty"`
	EvidenceJSON *string `json:"evidence_json,omitempty"`
	UpdatedAt    string  `json:"updated_at" format:"date-time"`
}

// CurationStatus is the durable per-item record written only by the fold.
type CurationStatus struct {
	ItemID        string `json:"item_id"`
	IsCurated     bool   `json:"is_curated"`
	LastCuratorID string `json:"last_curator_id"`
	LastCuratedAt string `json:"last_curated_at" format:"date-time"`
	CurationCount int    `json:"curation_count"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	CuratorID string `json:"curator_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
