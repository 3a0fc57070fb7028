// Package cli implements the tutorctl command line: one-shot ingestion into a
// private in-memory collection followed by a question.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"subject-tutor/internal/config"
	"subject-tutor/internal/corpus"
	"subject-tutor/internal/extract"
	"subject-tutor/internal/indexer"
	"subject-tutor/internal/library"
	"subject-tutor/internal/storage"
)

// NewRootCommand builds the tutorctl command tree.
func NewRootCommand() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "tutorctl",
		Short:         "Ask study questions about your own PDFs and web pages",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newAskCommand(), newSubjectsCommand())
	return root
}

// sourceFlags are the ingestion flags shared by every command.
type sourceFlags struct {
	pdfs     []string
	urls     []string
	manifest string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.pdfs, "pdf", nil, "PDF file to ingest (repeatable)")
	cmd.Flags().StringSliceVar(&f.urls, "url", nil, "web page to ingest (repeatable)")
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "YAML library manifest to ingest")
}

// session is a private in-memory collection that lives for one command.
type session struct {
	db       *sql.DB
	chunks   *storage.ChunkRepo
	pipeline *indexer.Pipeline
	loader   *library.Loader
}

func newSession(cfg *config.Config) (*session, error) {
	db, err := storage.New(storage.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	chunks := storage.NewChunkRepo(db)
	pipeline := indexer.NewPipeline(storage.NewDocumentRepo(db), chunks)
	fetcher := extract.NewFetcher(extract.FetcherConfig{
		Timeout:       cfg.FetchTimeout,
		RatePerSecond: cfg.FetchRatePerSecond,
	})
	return &session{
		db:       db,
		chunks:   chunks,
		pipeline: pipeline,
		loader:   library.NewLoader(pipeline, fetcher),
	}, nil
}

func (s *session) Close() error {
	return s.db.Close()
}

// ingest loads the flagged sources. PDFs and URLs are filed under subject;
// manifest entries keep their own subjects. Failed sources are reported on
// stderr and skipped.
func (s *session) ingest(ctx context.Context, cmd *cobra.Command, subject corpus.Subject, flags sourceFlags) error {
	var sources []library.Source
	for _, p := range flags.pdfs {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		sources = append(sources, library.Source{Subject: subject, Path: abs})
	}
	for _, u := range flags.urls {
		sources = append(sources, library.Source{Subject: subject, URL: u})
	}
	if flags.manifest != "" {
		fromManifest, err := library.LoadManifest(flags.manifest)
		if err != nil {
			return err
		}
		sources = append(sources, fromManifest...)
	}
	if len(sources) == 0 {
		return nil
	}

	report, _ := s.loader.IngestAll(ctx, sources)
	for _, r := range report.Results {
		if r.Err != nil {
			cmd.PrintErrf("skipped %s: %v\n", r.Source.Label(), r.Err)
		}
	}
	if report.Succeeded == 0 {
		return fmt.Errorf("no source could be ingested")
	}
	return nil
}
