package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/statement-scoring/internal/app"
	"github.com/dvloznov/statement-scoring/internal/config"
	"github.com/dvloznov/statement-scoring/internal/gcsuploader"
	"github.com/dvloznov/statement-scoring/internal/logger"
	"github.com/dvloznov/statement-scoring/internal/watch"
)

type globalOptions struct {
	configPath string
	logLevel   string
}

// setup loads config and returns a context carrying the logger.
func (o *globalOptions) setup(timeout time.Duration) (context.Context, context.CancelFunc, *config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	log := logger.NewWithLevel(cfg.Log.Level)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return logger.WithContext(ctx, log), cancel, cfg, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newUploadCommand(opts *globalOptions) *cobra.Command {
	var bucket, statementID string

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a statement file to GCS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, err := opts.setup(5 * time.Minute)
			if err != nil {
				return err
			}
			defer cancel()

			if bucket == "" {
				bucket = cfg.GCS.Bucket
			}
			if bucket == "" {
				return fmt.Errorf("--bucket or GCS_BUCKET is required")
			}
			path := args[0]
			if statementID == "" {
				statementID = watch.StatementID(path)
			}

			client, err := gcsuploader.NewClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			uri, err := client.UploadFile(ctx, bucket, gcsuploader.StatementObject(statementID, filepath.Base(path)), path)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as %s\n", path, uri)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "GCS bucket (defaults to config)")
	cmd.Flags().StringVar(&statementID, "statement-id", "", "statement ID (defaults to the file name)")
	return cmd
}

func newIngestCommand(opts *globalOptions) *cobra.Command {
	var statementID string

	cmd := &cobra.Command{
		Use:   "ingest SOURCE",
		Short: "Extract, categorize and aggregate a statement from a local path or gs:// URI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, err := opts.setup(30 * time.Minute)
			if err != nil {
				return err
			}
			defer cancel()

			source := args[0]
			if statementID == "" {
				statementID = watch.StatementID(source)
			}

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.Ingestor.Ingest(ctx, statementID, source)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"statement_id": statementID,
				"extracted":    len(state.Transactions),
				"inserted":     state.Inserted,
				"months":       len(state.Aggregates.Monthly),
			})
		},
	}

	cmd.Flags().StringVar(&statementID, "statement-id", "", "statement ID (defaults to the file name)")
	return cmd
}

func newAggregateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate STATEMENT_ID",
		Short: "Rebuild aggregates from the stored ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, err := opts.setup(10 * time.Minute)
			if err != nil {
				return err
			}
			defer cancel()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.Ingestor.Reaggregate(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state.Aggregates)
		},
	}
}

// readCommand builds a subcommand that only needs the scoring side.
func readCommand(opts *globalOptions, use, short string, run func(ctx context.Context, a *app.App, id string) (interface{}, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " STATEMENT_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, cfg, err := opts.setup(time.Minute)
			if err != nil {
				return err
			}
			defer cancel()

			a, err := app.NewScoring(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := run(ctx, a, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newScoreCommand(opts *globalOptions) *cobra.Command {
	return readCommand(opts, "score", "Score a statement", func(ctx context.Context, a *app.App, id string) (interface{}, error) {
		return a.Scoring.Score(ctx, id)
	})
}

func newMonthlyCommand(opts *globalOptions) *cobra.Command {
	return readCommand(opts, "monthly", "Print monthly summaries", func(ctx context.Context, a *app.App, id string) (interface{}, error) {
		return a.Scoring.Monthly(ctx, id)
	})
}

func newRecurringCommand(opts *globalOptions) *cobra.Command {
	return readCommand(opts, "recurring", "Print recurring bills", func(ctx context.Context, a *app.App, id string) (interface{}, error) {
		return a.Scoring.Recurring(ctx, id)
	})
}

func newLoansCommand(opts *globalOptions) *cobra.Command {
	return readCommand(opts, "loans", "Print outstanding loan payments", func(ctx context.Context, a *app.App, id string) (interface{}, error) {
		return a.Scoring.Loans(ctx, id)
	})
}

func newDeleteCommand(opts *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete STATEMENT_ID",
		Short: "Delete a statement's ledger and aggregates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", args[0])
			}
			ctx, cancel, cfg, err := opts.setup(time.Minute)
			if err != nil {
				return err
			}
			defer cancel()

			store, err := app.NewStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteStatement(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
