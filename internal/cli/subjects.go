package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"subject-tutor/internal/config"
	"subject-tutor/internal/corpus"
)

func newSubjectsCommand() *cobra.Command {
	var sources sourceFlags
	var subject string

	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "List subjects, with collection statistics when sources are given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sources.pdfs) == 0 && len(sources.urls) == 0 && sources.manifest == "" {
				for _, s := range corpus.Subjects() {
					cmd.Printf("%-30s %s\n", s, s.Slug())
				}
				return nil
			}

			target := corpus.SubjectDBMS
			if subject != "" {
				parsed, err := corpus.ParseSubject(subject)
				if err != nil {
					return err
				}
				target = parsed
			} else if len(sources.pdfs) > 0 || len(sources.urls) > 0 {
				return fmt.Errorf("--subject is required with --pdf or --url")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			s, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = s.Close()
			}()

			if err := s.ingest(cmd.Context(), cmd, target, sources); err != nil {
				return err
			}
			stats, err := s.pipeline.AllSubjectStats(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("%-30s %5s %5s %5s %6s\n", "SUBJECT", "DOCS", "PDFS", "URLS", "CHUNKS")
			for _, st := range stats {
				cmd.Printf("%-30s %5d %5d %5d %6d\n", st.Subject, st.Documents, st.PDFs, st.URLs, st.Chunks)
			}
			return nil
		},
	}

	sources.register(cmd)
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "subject for --pdf and --url sources")
	return cmd
}
