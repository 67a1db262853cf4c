// Command issueops is the GitHub Actions entrypoint for the issue lifecycle
// automation: it reads an event payload, reconciles the canonical status
// issue for that event, and can sweep duplicates. All decision logic lives in
// internal/; this binary is flag parsing, config, and wiring.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stackops/issueops/internal/reconcile"
	"github.com/stackops/issueops/internal/tracker"
)

var rootCmd = &cobra.Command{
	Use:   "issueops",
	Short: "Lifecycle management for CI/CD status-tracking issues",
	Long: `issueops reconciles status-tracking issues raised by CI/CD automation
(template validation, security scans, deployments, infrastructure) against
GitHub. Each event kind maintains a single canonical issue: runs create it
when missing, refresh it when present, and close any duplicates.

Configuration comes from flags or the standard GitHub Actions environment:
  GITHUB_TOKEN, GITHUB_REPOSITORY, GITHUB_SERVER_URL, GITHUB_RUN_ID`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("token", "", "GitHub API token (defaults to $GITHUB_TOKEN)")
	rootCmd.PersistentFlags().String("repository", "", "target repository as owner/repo (defaults to $GITHUB_REPOSITORY)")
	rootCmd.PersistentFlags().String("server-url", "https://github.com", "GitHub server URL (defaults to $GITHUB_SERVER_URL)")
	rootCmd.PersistentFlags().String("run-id", "", "workflow run ID for provenance links (defaults to $GITHUB_RUN_ID)")

	viper.SetEnvPrefix("GITHUB")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("repository", rootCmd.PersistentFlags().Lookup("repository"))
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server-url"))
	_ = viper.BindPFlag("run_id", rootCmd.PersistentFlags().Lookup("run-id"))
}

// runContextFromConfig assembles the run context from flags and the GitHub
// Actions environment.
func runContextFromConfig() (tracker.RunContext, error) {
	repository := viper.GetString("repository")
	parts := strings.SplitN(repository, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return tracker.RunContext{}, fmt.Errorf("repository must be owner/repo (got %q)", repository)
	}
	rc := tracker.RunContext{
		Owner:     parts[0],
		Repo:      parts[1],
		ServerURL: viper.GetString("server_url"),
		RunID:     viper.GetString("run_id"),
	}
	if err := rc.Validate(); err != nil {
		return tracker.RunContext{}, err
	}
	return rc, nil
}

// newStore builds the GitHub-backed store from configuration.
func newStore() (*tracker.GitHubStore, tracker.RunContext, error) {
	rc, err := runContextFromConfig()
	if err != nil {
		return nil, tracker.RunContext{}, err
	}
	store, err := tracker.NewGitHubStore(viper.GetString("token"), rc, nil)
	if err != nil {
		return nil, tracker.RunContext{}, err
	}
	return store, rc, nil
}

// newEngine builds the reconciliation engine from configuration.
func newEngine() (*reconcile.Engine, error) {
	store, rc, err := newStore()
	if err != nil {
		return nil, err
	}
	return reconcile.NewEngine(store, rc, nil)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
