package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/influencer-marketplace/backend/internal/app"
	"github.com/influencer-marketplace/backend/internal/auth"
	"github.com/influencer-marketplace/backend/internal/config"
	"github.com/influencer-marketplace/backend/internal/logger"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/notify"
	"github.com/influencer-marketplace/backend/internal/repositories"
	"github.com/influencer-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

var (
	jsonOut bool
	out     io.Writer = os.Stdout
)

// Operator tooling runs with admin visibility.
var operator = models.Actor{Role: models.RoleAdmin}

func main() {
	root := rootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "campaignctl",
		Short:         "Operator tooling for the campaign marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "output JSON")
	root.AddCommand(migrateCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(campaignsCmd())
	root.AddCommand(engagementsCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(eligibilityCmd())
	root.AddCommand(notificationsCmd())
	return root
}

type runtime struct {
	cfg       *config.Config
	backend   *app.Backend
	campaigns *services.CampaignService
	engage    *services.EngagementService
	notes     *services.NotificationService
}

func withRuntime(ctx context.Context, opts app.Options, fn func(context.Context, *runtime) error) error {
	cfg := config.Load()
	// Commands print to stdout; keep the log quiet unless asked otherwise.
	level := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console"})
	if err != nil {
		return err
	}
	defer log.Sync()
	cfg.Validate(log)

	opts.Name = "campaignctl"
	backend, err := app.Open(ctx, cfg, log, opts)
	if err != nil {
		return err
	}
	defer backend.Close()

	catalog, err := notify.DefaultCatalog()
	if err != nil {
		return err
	}
	dispatcher := notify.NewPublishDispatcher(backend.Publisher, log)
	return fn(ctx, &runtime{
		cfg:       cfg,
		backend:   backend,
		campaigns: services.NewCampaignService(backend.Stores, catalog, dispatcher, log),
		engage:    services.NewEngagementService(backend.Stores, catalog, dispatcher, backend.Publisher, backend.Subscriber, log),
		notes:     services.NewNotificationService(backend.Stores.Notifications, dispatcher, log.With(zap.String("component", "campaignctl"))),
	})
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), app.Options{Migrate: true}, func(ctx context.Context, rt *runtime) error {
				fmt.Fprintf(out, "migrations applied (%s)\n", rt.cfg.StoreDriver)
				return nil
			})
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}
			cfg := config.Load()
			if ttl <= 0 {
				ttl = cfg.JWTExpiration
			}
			tok, err := auth.GenerateJWT(cfg.JWTSecret, id, models.Role(role), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "admin, brand or influencer")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_EXPIRATION_HOURS)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func campaignsCmd() *cobra.Command {
	c := &cobra.Command{Use: "campaigns", Short: "Inspect campaigns"}
	c.AddCommand(campaignListCmd())
	return c
}

func campaignListCmd() *cobra.Command {
	var (
		status string
		owner  string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List campaigns",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := repositories.CampaignFilter{Limit: limit}
			if status != "" {
				if !models.IsValidCampaignStatus(status) {
					return fmt.Errorf("unknown status %q", status)
				}
				f.Status = &status
			}
			if owner != "" {
				id, err := uuid.Parse(owner)
				if err != nil {
					return fmt.Errorf("--owner: %w", err)
				}
				f.OwnerUserID = &id
			}
			return withRuntime(cmd.Context(), app.Options{}, func(ctx context.Context, rt *runtime) error {
				items, err := rt.campaigns.List(ctx, operator, f)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"ID", "Name", "Status", "Base payout", "Negotiable", "Owner"})
				for _, c := range items {
					tw.AppendRow(table.Row{c.ID, c.Name, c.Status, fmt.Sprintf("%s %d", c.Currency, c.BasePayout), c.CanNegotiate, c.OwnerUserID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "draft, active or completed")
	cmd.Flags().StringVar(&owner, "owner", "", "owner user id")
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	return cmd
}

func engagementsCmd() *cobra.Command {
	e := &cobra.Command{Use: "engagements", Short: "Inspect engagements"}
	e.AddCommand(engagementListCmd())
	return e
}

func engagementListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list <campaign-id>",
		Short: "List engagements of a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			campaignID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("campaign id: %w", err)
			}
			var st *models.EngagementStatus
			if status != "" {
				if !models.IsValidEngagementStatus(status) {
					return fmt.Errorf("unknown status %q", status)
				}
				s := models.EngagementStatus(status)
				st = &s
			}
			return withRuntime(cmd.Context(), app.Options{}, func(ctx context.Context, rt *runtime) error {
				rows, err := rt.engage.ListForCampaign(ctx, operator, campaignID, st)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(rows)
				}
				tw := services.EngagementsTable(rows)
				tw.SetOutputMirror(out)
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by engagement status")
	return cmd
}

func exportCmd() *cobra.Command {
	x := &cobra.Command{Use: "export", Short: "Export campaign data"}
	x.AddCommand(&cobra.Command{
		Use:   "csv <campaign-id>",
		Short: "Write the engagement sheet of a campaign as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			campaignID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("campaign id: %w", err)
			}
			return withRuntime(cmd.Context(), app.Options{}, func(ctx context.Context, rt *runtime) error {
				csv, err := rt.engage.ExportEngagementsCSV(ctx, operator, campaignID)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, csv)
				return err
			})
		},
	})
	return x
}

func eligibilityCmd() *cobra.Command {
	e := &cobra.Command{Use: "eligibility", Short: "Explain campaign eligibility"}
	e.AddCommand(&cobra.Command{
		Use:   "check <campaign-id> <influencer-id>",
		Short: "Check an influencer against a campaign's criteria",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			campaignID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("campaign id: %w", err)
			}
			influencerID, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("influencer id: %w", err)
			}
			return withRuntime(cmd.Context(), app.Options{}, func(ctx context.Context, rt *runtime) error {
				rep, err := rt.campaigns.Check(ctx, campaignID, influencerID)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(rep)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendRow(table.Row{"eligible", rep.Eligible})
				tw.AppendRow(table.Row{"blocked", rep.Blocked})
				for _, f := range rep.Failed {
					tw.AppendRow(table.Row{"failed", f})
				}
				if rep.Engagement != nil {
					tw.AppendRow(table.Row{"engagement", *rep.Engagement})
				}
				tw.Render()
				return nil
			})
		},
	})
	return e
}

func notificationsCmd() *cobra.Command {
	n := &cobra.Command{Use: "notifications", Short: "Inspect notifications"}
	var (
		role  string
		limit int
	)
	list := &cobra.Command{
		Use:   "list <user-id>",
		Short: "Show the latest notifications of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("user id: %w", err)
			}
			actor := models.Actor{UserID: userID, Role: models.Role(role)}
			if !actor.Role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			return withRuntime(cmd.Context(), app.Options{}, func(ctx context.Context, rt *runtime) error {
				items, err := rt.notes.Recent(ctx, actor, limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.AppendHeader(table.Row{"Created", "Type", "Title", "Read", "Delivered"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.CreatedAt.Format(time.RFC3339), it.Type, it.Title, it.ReadAt != nil, it.DeliveredAt != nil})
				}
				tw.Render()
				return nil
			})
		},
	}
	list.Flags().StringVar(&role, "role", string(models.RoleInfluencer), "recipient role")
	list.Flags().IntVar(&limit, "limit", 20, "number of notifications")
	n.AddCommand(list)
	return n
}

func printJSON(v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
