// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/internal/archive"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse archived research sessions",
	Long: `Sessions manages the local archive of completed research sessions.
Use subcommands to list recent sessions, show one in full, or search
past queries and answers with full-text search.`,
}

// --- list subcommand ---

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived sessions, newest first",
	RunE:  runSessionsList,
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	summaries, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSummaries(summaries, jsonOutput)
}

// --- show subcommand ---

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show one archived session in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	resp, err := store.Show(context.Background(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	data, err := yaml.Marshal(resp)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

// --- search subcommand ---

var sessionsSearchCmd = &cobra.Command{
	Use:   "search [terms]",
	Short: "Full-text search over past queries and answers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSessionsSearch,
}

func runSessionsSearch(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	summaries, err := store.Search(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSummaries(summaries, jsonOutput)
}

// --- shared helpers ---

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	dir, _ := cmd.Flags().GetString("archive-dir")
	if dir == "" {
		dir = viper.GetString("archive.archive_dir")
	}
	if dir == "" {
		dir = "archive"
	}
	return archive.NewStore(types.ArchiveConfig{
		ArchiveDir: dir,
		MaxResults: viper.GetInt("archive.max_results"),
	})
}

func formatSummaries(summaries []archive.SessionSummary, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-8s  %-7s  %s\n",
		"ID", "Created", "Sources", "Status", "Query")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, s := range summaries {
		status := "ok"
		if s.FailReason != "" {
			status = s.FailReason
		} else if s.Degraded {
			status = "partial"
		}
		query := s.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %-8d  %-7s  %s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.SourceCount, status, query)
	}

	fmt.Fprintf(os.Stdout, "\n%d sessions\n", len(summaries))
	return nil
}

func init() {
	sessionsCmd.PersistentFlags().String("archive-dir", "", "archive database directory (default from config)")
	sessionsCmd.PersistentFlags().Int("limit", 0, "maximum rows (0 = use default)")
	sessionsCmd.PersistentFlags().Bool("json", false, "output as JSON")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsSearchCmd)

	rootCmd.AddCommand(sessionsCmd)
}
