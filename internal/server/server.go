package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"foldbench/internal/engine"
	"foldbench/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"session_not_active"`
	Message string         `json:"message" example:"session is not in progress"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"status\":\"committed\"}"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Foldbench API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Foldbench API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerSessions(group, cfg.Engine)
	registerWorkItems(group, cfg.Engine)
	registerStats(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, engine.ErrNoEligibleItems):
		return newAPIError(http.StatusConflict, "no_eligible_items", err.Error(), nil)
	case errors.Is(err, engine.ErrSessionNotActive):
		return newAPIError(http.StatusConflict, "session_not_active", err.Error(), nil)
	case errors.Is(err, engine.ErrNotSessionOwner):
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, engine.ErrInvalidAction):
		return newAPIError(http.StatusBadRequest, "invalid_action", err.Error(), nil)
	case errors.Is(err, engine.ErrItemNotAssigned):
		return newAPIError(http.StatusBadRequest, "item_not_assigned", err.Error(), nil)
	case errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "database is locked") || strings.Contains(lowered, "busy"):
		return newAPIError(http.StatusServiceUnavailable, "store_unavailable", "store temporarily unavailable", nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusServiceUnavailable:
		return "store_unavailable"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	if b, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return b
	}
	return nil
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Foldbench API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerSessions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "allocate-session",
		Method:        http.MethodPost,
		Path:          "/sessions",
		Summary:       "Allocate a review session",
		Description:   "Leases a ranked batch of eligible work items to the authenticated curator and opens a session over them.",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusConflict,
			http.StatusServiceUnavailable,
		},
	}, func(ctx context.Context, input *struct {
		Body AllocateSessionRequest `json:"body"`
	}) (*struct {
		Body AllocationResponse `json:"body"`
	}, error) {
		curatorID, authErr := curatorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		got, err := e.Allocate(ctx, curatorID, input.Body.BatchSize)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body AllocationResponse `json:"body"`
		}{Body: AllocationResponse{
			Session: sessionResponse(got.Session),
			Items:   mapWorkItems(got.Items),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List sessions",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status          string `query:"status" enum:"in_progress,abandoned,committed,discarded,completed,"`
		CuratorID       string `query:"curator_id"`
		Limit           int    `query:"limit" minimum:"0" maximum:"500"`
		CursorCreatedAt string `query:"cursor_created_at"`
		CursorID        string `query:"cursor_id"`
	}) (*struct {
		Body []SessionResponse `json:"body"`
	}, error) {
		if _, authErr := curatorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		sessions, err := e.Repo.ListSessions(ctx, repo.SessionFilters{
			Status:          input.Status,
			CuratorID:       input.CuratorID,
			Limit:           input.Limit,
			CursorCreatedAt: input.CursorCreatedAt,
			CursorID:        input.CursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []SessionResponse `json:"body"`
		}{Body: mapSessions(sessions)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/sessions/{session_id}",
		Summary:     "Get session",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		if _, authErr := curatorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		s, err := e.Repo.GetSession(ctx, input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SessionResponse `json:"body"`
		}{Body: sessionResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "checkpoint-session",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/checkpoint",
		Summary:     "Checkpoint session progress",
		Description: "Persists cursor and progress state and renews the session's leases.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		SessionID string            `path:"session_id"`
		Body      CheckpointRequest `json:"body"`
	}) (*struct {
		Body CheckpointResponse `json:"body"`
	}, error) {
		curatorID, authErr := curatorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		res, err := e.Checkpoint(ctx, input.SessionID, curatorID, input.Body.CursorIndex, input.Body.ReviewedCount, rawToStringPtr(input.Body.Checkpoint))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CheckpointResponse `json:"body"`
		}{Body: CheckpointResponse{
			Session:       sessionResponse(res.Session),
			LeasesRenewed: res.LeasesRenewed,
			LeaseExpires:  res.LeaseExpires,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resume-session",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/resume",
		Summary:     "Resume a session",
		Description: "Reloads an in-progress session or revives an abandoned one, re-acquiring whatever leases are still free.",
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct {
		Body ResumeResponse `json:"body"`
	}, error) {
		curatorID, authErr := curatorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := e.Resume(ctx, input.SessionID, curatorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ResumeResponse `json:"body"`
		}{Body: resumeResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "finalize-session",
		Method:      http.MethodPost,
		Path:        "/sessions/{session_id}/finalize",
		Summary:     "Finalize a session",
		Description: "Ends the session: commit folds its decisions into curation state, discard throws them away, revisit ends the session keeping items uncurated.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		SessionID string          `path:"session_id"`
		Body      FinalizeRequest `json:"body"`
	}) (*struct {
		Body SessionResponse `json:"body"`
	}, error) {
		curatorID, authErr := curatorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		s, err := e.Finalize(ctx, input.SessionID, curatorID, input.Body.Action)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SessionResponse `json:"body"`
		}{Body: sessionResponse(s)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-decision",
		Method:      http.MethodPut,
		Path:        "/sessions/{session_id}/decisions/{item_id}",
		Summary:     "Record a curation decision",
		Description: "Upserts the verdict for one assigned item; last write wins while the session is in progress.",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		SessionID string          `path:"session_id"`
		ItemID    string          `path:"item_id"`
		Body      DecisionRequest `json:"body"`
	}) (*struct {
		Body DecisionResponse `json:"body"`
	}, error) {
		curatorID, authErr := curatorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		d, err := e.RecordDecision(ctx, input.SessionID, curatorID, engine.DecisionInput{
			ItemID:       input.ItemID,
			Keep:         input.Body.Keep,
			Confidence:   input.Body.Confidence,
			Notes:        input.Body.Notes,
			EvidenceJSON: rawToStringPtr(input.Body.Evidence),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DecisionResponse `json:"body"`
		}{Body: decisionResponse(d)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-decisions",
		Method:      http.MethodGet,
		Path:        "/sessions/{session_id}/decisions",
		Summary:     "List session decisions",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SessionID string `path:"session_id"`
	}) (*struct {
		Body []DecisionResponse `json:"body"`
	}, error) {
		if _, authErr := curatorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		if _, err := e.Repo.GetSession(ctx, input.SessionID); err != nil {
			return nil, handleError(err)
		}
		decisions, err := e.Repo.ListDecisions(ctx, input.SessionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []DecisionResponse `json:"body"`
		}{Body: mapDecisions(decisions)}, nil
	})
}

func registerWorkItems(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-work-items",
		Method:      http.MethodGet,
		Path:        "/work-items",
		Summary:     "List work items",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Curated  *bool  `query:"curated"`
		Leased   *bool  `query:"leased"`
		Limit    int    `query:"limit" minimum:"0" maximum:"500"`
		CursorID string `query:"cursor_id"`
	}) (*struct {
		Body []WorkItemResponse `json:"body"`
	}, error) {
		if _, authErr := curatorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListWorkItems(ctx, repo.WorkItemFilters{
			Curated:  input.Curated,
			Leased:   input.Leased,
			Now:      e.Timestamp(),
			Limit:    input.Limit,
			CursorID: input.CursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []WorkItemResponse `json:"body"`
		}{Body: mapWorkItems(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-work-item",
		Method:      http.MethodGet,
		Path:        "/work-items/{item_id}",
		Summary:     "Get work item",
		Description: "Returns the item with its live lease and curation record, when they exist.",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ItemID string `path:"item_id"`
	}) (*struct {
		Body WorkItemDetailResponse `json:"body"`
	}, error) {
		if _, authErr := curatorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		item, err := e.Repo.GetWorkItem(ctx, input.ItemID)
		if err != nil {
			return nil, handleError(err)
		}
		resp := WorkItemDetailResponse{WorkItemResponse: workItemResponse(item)}
		if lease, err := e.Repo.GetLease(ctx, input.ItemID); err == nil {
			resp.Lease = &LeaseResponse{
				ItemID:     lease.ItemID,
				CuratorID:  lease.CuratorID,
				SessionID:  lease.SessionID,
				AcquiredAt: lease.AcquiredAt,
				ExpiresAt:  lease.ExpiresAt,
			}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, handleError(err)
		}
		if cs, err := e.Repo.GetCurationStatus(ctx, input.ItemID); err == nil {
			resp.Curation = &CurationStatusResponse{
				IsCurated:     cs.IsCurated,
				LastCuratorID: cs.LastCuratorID,
				LastCuratedAt: cs.LastCuratedAt,
				CurationCount: cs.CurationCount,
			}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, handleError(err)
		}
		return &struct {
			Body WorkItemDetailResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func registerStats(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Curation progress statistics",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body StatsResponse `json:"body"`
	}, error) {
		if _, authErr := curatorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		var resp StatsResponse
		total, curated, err := e.Repo.CountWorkItems(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		resp.WorkItems.Total = total
		resp.WorkItems.Curated = curated
		live, err := e.Repo.CountLiveLeases(ctx, e.Timestamp())
		if err != nil {
			return nil, handleError(err)
		}
		resp.LiveLeases = live
		sessions, err := e.Repo.CountSessionsByStatus(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		resp.Sessions = sessions
		return &struct {
			Body StatsResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List audit events",
		Description: "Pages the audit log newest first.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" minimum:"0" maximum:"500"`
		Cursor     int64  `query:"cursor" minimum:"0"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		if _, authErr := curatorIDFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 50
		}
		events, err := e.Repo.LatestEventsFrom(ctx, limit, input.Cursor, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		res := make([]EventResponse, 0, len(events))
		for _, evt := range events {
			res = append(res, eventResponse(evt))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: res}, nil
	})
}
