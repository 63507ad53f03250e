// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/internal/ai/mock"
	"github.com/pdiddy/answer-engine/internal/analyzer"
	"github.com/pdiddy/answer-engine/internal/archive"
	"github.com/pdiddy/answer-engine/internal/docfetch"
	"github.com/pdiddy/answer-engine/internal/orchestrate"
	"github.com/pdiddy/answer-engine/internal/provider"
	"github.com/pdiddy/answer-engine/internal/resilient"
	"github.com/pdiddy/answer-engine/internal/searcher"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [question]",
	Short: "Run a full research session for a question",
	Long: `Research decomposes the question into sub-queries, fans them out across
the enabled search providers, merges and deduplicates the results, indexes
the source content, and synthesizes a cited answer. Provider outages
degrade the answer rather than abort the session.

Embedding and synthesis run on local deterministic collaborators; model
backends plug in through the ai interfaces.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	cfg := pipelineConfig(cmd)

	httpClient := &http.Client{Timeout: cfg.Providers.Timeout}
	clients := provider.Enabled(cfg.Providers, httpClient)
	if len(clients) == 0 {
		return fmt.Errorf("no search providers enabled: set providers.enable_* in config")
	}

	fetchers := make([]searcher.Fetcher, len(clients))
	for i, c := range clients {
		fetchers[i] = resilient.New(c, cfg.Providers, cfg.Fetcher)
	}

	an, err := analyzer.New(cfg.Analyzer)
	if err != nil {
		return err
	}

	o := orchestrate.New(an,
		fetchers,
		docfetch.New(httpClient, cfg.DocFetch),
		&mock.Embedder{},
		&mock.Synthesizer{},
		mock.Extractor{},
		cfg,
		os.Stderr,
	)

	quiet, _ := cmd.Flags().GetBool("quiet")
	var sink orchestrate.ProgressSink
	if !quiet {
		sink = func(e types.ProgressEvent) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", e.Stage, e.Message)
		}
	}

	resp, runErr := o.Run(cmd.Context(), query, sink)
	if resp == nil {
		return runErr
	}

	if noArchive, _ := cmd.Flags().GetBool("no-archive"); !noArchive {
		if err := archiveSession(cmd, cfg, resp); err != nil {
			fmt.Fprintf(os.Stderr, "warning: archiving session failed: %v\n", err)
		}
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	} else {
		printResponse(resp)
	}

	return runErr
}

func archiveSession(cmd *cobra.Command, cfg types.PipelineConfig, resp *types.ResearchResponse) error {
	store, err := archive.NewStore(cfg.Archive)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(cmd.Context(), resp)
}

func printResponse(resp *types.ResearchResponse) {
	fmt.Println(resp.Answer)

	if resp.Bibliography != "" {
		fmt.Println("\nReferences:")
		fmt.Println(resp.Bibliography)
	}

	for _, w := range resp.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if resp.Degraded {
		fmt.Fprintln(os.Stderr, "note: this answer is degraded; see warnings above")
	}
	fmt.Fprintf(os.Stderr, "session: %s\n", resp.SessionID)
}

// pipelineConfig assembles the stage configuration from viper defaults,
// config file values, and flag overrides.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	v := viper.GetViper()
	setConfigDefaults(v)

	cfg := types.PipelineConfig{
		Providers: types.ProviderConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("http.timeout"),
				UserAgent: v.GetString("http.user_agent"),
			},
			MaxResults:            v.GetInt("providers.max_results"),
			EnableArxiv:           v.GetBool("providers.enable_arxiv"),
			EnableSemanticScholar: v.GetBool("providers.enable_semantic_scholar"),
			EnableWebSearch:       v.GetBool("providers.enable_web_search"),
			SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", v.GetString("providers.semantic_scholar_api_key")),
			WebSearchEndpoint:     v.GetString("providers.web_search_endpoint"),
			WebSearchAPIKey:       secretDefault("web-search-api-key", v.GetString("providers.web_search_api_key")),
		},
		Fetcher: types.FetcherConfig{
			MaxAttempts:   v.GetInt("fetcher.max_attempts"),
			BaseDelay:     v.GetDuration("fetcher.base_delay"),
			MinInterval:   v.GetDuration("fetcher.min_interval"),
			CallTimeout:   v.GetDuration("fetcher.call_timeout"),
			FallbackCount: v.GetInt("fetcher.fallback_count"),
		},
		Analyzer: types.AnalyzerConfig{
			CategoriesFile: v.GetString("analyzer.categories_file"),
			MaxVariants:    v.GetInt("analyzer.max_variants"),
		},
		Searcher: types.SearcherConfig{
			MaxResults:  v.GetInt("searcher.max_results"),
			FanOutLimit: v.GetInt("searcher.fan_out_limit"),
		},
		Index: types.IndexConfig{
			ChunkSize:    v.GetInt("index.chunk_size"),
			ChunkOverlap: v.GetInt("index.chunk_overlap"),
			TopK:         v.GetInt("index.top_k"),
			Workers:      v.GetInt("index.workers"),
		},
		DocFetch: types.DocFetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("http.timeout"),
				UserAgent: v.GetString("http.user_agent"),
			},
			FetchDelay:   v.GetDuration("doc_fetch.fetch_delay"),
			MaxBodyBytes: v.GetInt64("doc_fetch.max_body_bytes"),
		},
		Orchestrator: types.OrchestratorConfig{
			TimeBudget:    v.GetDuration("orchestrator.time_budget"),
			MaxSources:    v.GetInt("orchestrator.max_sources"),
			CitationStyle: v.GetString("orchestrator.citation_style"),
			ExportDir:     v.GetString("orchestrator.export_dir"),
		},
		Archive: types.ArchiveConfig{
			ArchiveDir: v.GetString("archive.archive_dir"),
			MaxResults: v.GetInt("archive.max_results"),
		},
	}

	if n, _ := cmd.Flags().GetInt("max-sources"); n > 0 {
		cfg.Orchestrator.MaxSources = n
	}
	if style, _ := cmd.Flags().GetString("style"); style != "" {
		cfg.Orchestrator.CitationStyle = style
	}
	if budget, _ := cmd.Flags().GetDuration("budget"); budget > 0 {
		cfg.Orchestrator.TimeBudget = budget
	}
	if dir, _ := cmd.Flags().GetString("export-dir"); dir != "" {
		cfg.Orchestrator.ExportDir = dir
	}

	return cfg
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", "10s")
	v.SetDefault("http.user_agent", "answer-engine/"+version)
	v.SetDefault("providers.max_results", 20)
	v.SetDefault("providers.enable_arxiv", true)
	v.SetDefault("providers.enable_semantic_scholar", true)
	v.SetDefault("providers.enable_web_search", false)
	v.SetDefault("fetcher.max_attempts", 3)
	v.SetDefault("fetcher.base_delay", "1s")
	v.SetDefault("fetcher.min_interval", "500ms")
	v.SetDefault("fetcher.call_timeout", "8s")
	v.SetDefault("fetcher.fallback_count", 3)
	v.SetDefault("analyzer.max_variants", 3)
	v.SetDefault("searcher.max_results", 20)
	v.SetDefault("searcher.fan_out_limit", 5)
	v.SetDefault("index.chunk_size", 800)
	v.SetDefault("index.chunk_overlap", 120)
	v.SetDefault("index.top_k", 8)
	v.SetDefault("index.workers", 3)
	v.SetDefault("doc_fetch.fetch_delay", "1s")
	v.SetDefault("doc_fetch.max_body_bytes", 512*1024)
	v.SetDefault("orchestrator.time_budget", "180s")
	v.SetDefault("orchestrator.max_sources", 10)
	v.SetDefault("orchestrator.citation_style", "numeric")
	v.SetDefault("archive.archive_dir", "archive")
	v.SetDefault("archive.max_results", 20)
}

func init() {
	researchCmd.Flags().Int("max-sources", 0, "maximum sources in the final answer (0 = use config)")
	researchCmd.Flags().String("style", "", "citation style: numeric, apa, or mla")
	researchCmd.Flags().Duration("budget", 0, "overall session time budget (0 = use config)")
	researchCmd.Flags().String("export-dir", "", "write the completed session as YAML into this directory")
	researchCmd.Flags().Bool("json", false, "output the full response as JSON")
	researchCmd.Flags().Bool("quiet", false, "suppress progress events")
	researchCmd.Flags().Bool("no-archive", false, "do not record the session in the archive database")

	rootCmd.AddCommand(researchCmd)
}
