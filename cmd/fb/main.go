package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"foldbench/internal/config"
	"foldbench/internal/db"
	"foldbench/internal/domain"
	"foldbench/internal/engine"
	"foldbench/internal/migrate"
	"foldbench/internal/repo"
	"foldbench/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "fb",
	Short: "Foldbench CLI",
	Long: `Foldbench coordinates protein-domain curation work across reviewers.
Core concepts:
- Workspace: the .foldbench directory holding the database; config lives in foldbench.yml next to it.
- Work items: candidate domain boundaries imported from a prediction pipeline, ranked by confidence and evidence.
- Sessions: one reviewer's batch of leased items; progress is checkpointed and can be resumed after a crash.
- Leases: temporary exclusive claims that keep two reviewers off the same item; the reaper frees expired ones.
- Decisions: per-item verdicts inside a session; committing a session folds them into durable curation state.
- Event log: diary of allocations, checkpoints and finalizations, view with 'fb log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("FOLDBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("curator-id", "local-user", "curator identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("curator-id", rootCmd.PersistentFlags().Lookup("curator-id"))
}

func registerCommands() {
	rootCmd.AddCommand(workCmd())
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(reaperCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func workCmd() *cobra.Command {
	work := &cobra.Command{Use: "work", Short: "Manage work items"}
	work.AddCommand(workImportCmd())
	work.AddCommand(workListCmd())
	work.AddCommand(workShowCmd())
	return work
}

func workImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import work items",
		Long:  "Reads work items from a JSON array or JSON-lines file and inserts them. Existing item ids are rejected.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readWorkItems(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				now := e.Timestamp()
				imported := 0
				for _, item := range items {
					if item.ItemID == "" {
						return fmt.Errorf("work item missing item_id")
					}
					if item.CreatedAt == "" {
						item.CreatedAt = now
					}
					if err := e.Repo.InsertWorkItem(ctx, item); err != nil {
						return fmt.Errorf("import %s: %w", item.ItemID, err)
					}
					imported++
				}
				fmt.Printf("Imported %d work items\n", imported)
				return nil
			})
		},
	}
	return cmd
}

func readWorkItems(path string) ([]domain.WorkItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var items []domain.WorkItem
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return items, nil
	}
	var items []domain.WorkItem
	scanner := bufio.NewScanner(strings.NewReader(trimmed))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var item domain.WorkItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		items = append(items, item)
	}
	return items, scanner.Err()
}

func workListCmd() *cobra.Command {
	var curated, leased bool
	var limit int
	var cursor string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				filters := repo.WorkItemFilters{Now: e.Timestamp(), Limit: limit, CursorID: cursor}
				if cmd.Flags().Changed("curated") {
					filters.Curated = &curated
				}
				if cmd.Flags().Changed("leased") {
					filters.Leased = &leased
				}
				items, err := e.Repo.ListWorkItems(ctx, filters)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Accession", "Residues", "Confidence", "Evidence", "Curated"})
				for _, item := range items {
					tw.AppendRow(table.Row{item.ItemID, item.Accession, item.ResidueCount, fmt.Sprintf("%.2f", item.Confidence), item.EvidenceCount, item.Curated})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&curated, "curated", false, "filter by curated state")
	cmd.Flags().BoolVar(&leased, "leased", false, "filter by live lease")
	cmd.Flags().IntVar(&limit, "limit", 50, "max rows")
	cmd.Flags().StringVar(&cursor, "cursor", "", "resume after this item id")
	return cmd
}

func workShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <item_id>",
		Short: "Show a work item with its lease and curation record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				item, err := e.Repo.GetWorkItem(ctx, args[0])
				if err != nil {
					return err
				}
				out := map[string]any{"item": item}
				if lease, err := e.Repo.GetLease(ctx, args[0]); err == nil {
					out["lease"] = lease
				} else if !errors.Is(err, repo.ErrNotFound) {
					return err
				}
				if cs, err := e.Repo.GetCurationStatus(ctx, args[0]); err == nil {
					out["curation"] = cs
				} else if !errors.Is(err, repo.ErrNotFound) {
					return err
				}
				return printJSONOrTable(out)
			})
		},
	}
	return cmd
}

func sessionCmd() *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Manage review sessions"}
	session.AddCommand(sessionAllocateCmd())
	session.AddCommand(sessionListCmd())
	session.AddCommand(sessionShowCmd())
	session.AddCommand(sessionDecideCmd())
	session.AddCommand(sessionResumeCmd())
	session.AddCommand(sessionFinalizeCmd())
	return session
}

func sessionAllocateCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Lease a batch of eligible items into a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				got, err := e.Allocate(ctx, viper.GetString("curator-id"), batch)
				if err != nil {
					return err
				}
				return printJSONOrTable(got)
			})
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "batch size (0 uses the configured default)")
	return cmd
}

func sessionListCmd() *cobra.Command {
	var status, curator string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				sessions, err := e.Repo.ListSessions(ctx, repo.SessionFilters{
					Status:    status,
					CuratorID: curator,
					Limit:     limit,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sessions)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Curator", "Status", "Assigned", "Reviewed", "Updated"})
				for _, s := range sessions {
					tw.AppendRow(table.Row{s.SessionID, s.CuratorID, s.Status, len(s.AssignedItems), s.ReviewedCount, s.UpdatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&curator, "curator", "", "curator filter")
	cmd.Flags().IntVar(&limit, "limit", 50, "max rows")
	return cmd
}

func sessionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session_id>",
		Short: "Show a session with its decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Repo.GetSession(ctx, args[0])
				if err != nil {
					return err
				}
				decisions, err := e.Repo.ListDecisions(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"session": s, "decisions": decisions})
			})
		},
	}
	return cmd
}

func sessionDecideCmd() *cobra.Command {
	var itemID, notes string
	var keep bool
	var confidence float64
	cmd := &cobra.Command{
		Use:   "decide <session_id>",
		Short: "Record a decision for an assigned item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if itemID == "" {
				return fmt.Errorf("--item required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.RecordDecision(ctx, args[0], viper.GetString("curator-id"), engine.DecisionInput{
					ItemID:     itemID,
					Keep:       keep,
					Confidence: confidence,
					Notes:      notes,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "work item id")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the predicted boundary")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "reviewer confidence")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func sessionResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <session_id>",
		Short: "Resume an in-progress or abandoned session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.Resume(ctx, args[0], viper.GetString("curator-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	return cmd
}

func sessionFinalizeCmd() *cobra.Command {
	var action string
	cmd := &cobra.Command{
		Use:   "finalize <session_id>",
		Short: "Finalize a session (commit, discard or revisit)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				s, err := e.Finalize(ctx, args[0], viper.GetString("curator-id"), action)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&action, "action", "commit", "commit, discard or revisit")
	return cmd
}

func reaperCmd() *cobra.Command {
	reaper := &cobra.Command{Use: "reaper", Short: "Lease and session reaper"}
	reaper.AddCommand(reaperRunCmd())
	return reaper
}

func reaperRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reaper sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				stats, err := e.Sweep(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(stats)
			})
		},
	}
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Curation progress statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				total, curated, err := e.Repo.CountWorkItems(ctx)
				if err != nil {
					return err
				}
				live, err := e.Repo.CountLiveLeases(ctx, e.Timestamp())
				if err != nil {
					return err
				}
				sessions, err := e.Repo.CountSessionsByStatus(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{
					"work_items":  map[string]int{"total": total, "curated": curated},
					"live_leases": live,
					"sessions":    sessions,
				})
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	logc := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: allocations, checkpoints, finalizations, reaper sweeps.",
	}
	logc.AddCommand(logTailCmd())
	return logc
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEventsFrom(ctx, n, 0, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "TS", "Type", "Entity", "Actor"})
				for _, evt := range events {
					tw.AppendRow(table.Row{evt.ID, evt.TS, evt.Type, evt.EntityKind + "/" + evt.EntityID, evt.ActorID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func apikeyCmd() *cobra.Command {
	apikey := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	apikey.AddCommand(apikeyCreateCmd())
	apikey.AddCommand(apikeyListCmd())
	apikey.AddCommand(apikeyRevokeCmd())
	return apikey
}

func apikeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for the current curator",
		Long:  "Prints the raw key once; only its hash is stored.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				raw := uuid.NewString() + uuid.NewString()
				key := domain.APIKey{
					ID:        uuid.NewString(),
					CuratorID: viper.GetString("curator-id"),
					Name:      name,
					KeyHash:   repo.HashAPIKey(raw),
					CreatedAt: e.Timestamp(),
				}
				if err := e.Repo.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"id": key.ID, "key": raw})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var curator string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				keys, err := e.Repo.ListAPIKeys(ctx, curator)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Curator", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.CuratorID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&curator, "curator", "", "filter by curator")
	return cmd
}

func apikeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Repo.DeleteAPIKey(ctx, args[0])
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var allowLegacyHeader, noReaper bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:                os.Getenv("FOLDBENCH_JWT_SECRET"),
				AllowLegacyCuratorHeader: allowLegacyHeader,
			}
			if authCfg.JWTSecret == "" && !allowLegacyHeader {
				return fmt.Errorf("FOLDBENCH_JWT_SECRET is required for bearer auth (or pass --allow-legacy-header for local use)")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			if !noReaper {
				go e.RunReaper(cmd.Context(), log.Default())
			}
			server.StartWebhookDispatcher(e)
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Foldbench API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	cmd.Flags().BoolVar(&allowLegacyHeader, "allow-legacy-header", false, "accept X-Curator-Id without auth (local use only)")
	cmd.Flags().BoolVar(&noReaper, "no-reaper", false, "disable the background reaper")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
