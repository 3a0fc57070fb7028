package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subject-tutor/internal/config"
	"subject-tutor/internal/corpus"
	"subject-tutor/internal/llm"
	"subject-tutor/internal/rag"
)

const snippetLength = 160

type askOptions struct {
	sources      sourceFlags
	subject      string
	k            int
	retrieveOnly bool
	json         bool
	llmURL       string
	llmModel     string
}

func newAskCommand() *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ingest sources and answer a question",
		Long: `Ingests the given PDFs, web pages and manifest into a private in-memory
collection, retrieves the best matching chunks for the subject and answers
from them. With --retrieve-only the ranked chunks are printed instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, strings.Join(args, " "), opts)
		},
	}

	opts.sources.register(cmd)
	cmd.Flags().StringVarP(&opts.subject, "subject", "s", "", "subject name or slug (dbms, ml, dl, nlp, ds)")
	cmd.Flags().IntVar(&opts.k, "k", 0, "number of chunks to retrieve (default from RETRIEVAL_TOP_K)")
	cmd.Flags().BoolVar(&opts.retrieveOnly, "retrieve-only", false, "print ranked chunks without calling the LLM")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output as JSON")
	cmd.Flags().StringVar(&opts.llmURL, "llm-url", "", "OpenAI-compatible base URL (default from LLM_BASE_URL)")
	cmd.Flags().StringVar(&opts.llmModel, "llm-model", "", "model name (default from LLM_MODEL)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func runAsk(cmd *cobra.Command, question string, opts askOptions) error {
	ctx := cmd.Context()

	subject, err := corpus.ParseSubject(opts.subject)
	if err != nil {
		return err
	}
	if opts.k < 0 || opts.k > 20 {
		return fmt.Errorf("--k must be between 0 and 20")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.llmURL != "" {
		cfg.LLMBaseURL = opts.llmURL
	}
	if opts.llmModel != "" {
		cfg.LLMModelName = opts.llmModel
	}

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Close()
	}()

	if err := s.ingest(ctx, cmd, subject, opts.sources); err != nil {
		return err
	}

	client := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)
	client.Temperature = cfg.LLMTemperature
	engine := rag.NewEngine(s.chunks, client, cfg.RetrievalTopK)
	req := rag.AskRequest{Question: question, Subject: subject, K: opts.k}

	if opts.retrieveOnly {
		chunks, err := engine.Retrieve(ctx, req)
		if err != nil {
			return err
		}
		if opts.json {
			return printJSON(cmd, chunks)
		}
		printChunks(cmd, chunks)
		return nil
	}

	resp, err := engine.Ask(ctx, req)
	if err != nil {
		return err
	}
	if opts.json {
		return printJSON(cmd, resp)
	}

	cmd.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, c := range resp.Sources {
			cmd.Printf("  [%d] %s, %s\n", i+1, c.SourceName, c.Location())
		}
	}
	return nil
}

func printChunks(cmd *cobra.Command, chunks []corpus.Chunk) {
	if len(chunks) == 0 {
		cmd.Println("No matching chunks.")
		return
	}
	for i, c := range chunks {
		cmd.Printf("  [%d] %s, %s (%.2f)\n", i+1, c.SourceName, c.Location(), c.Score)
		cmd.Printf("      %s\n", snippet(c.Text))
	}
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
