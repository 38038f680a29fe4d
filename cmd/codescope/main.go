package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/codescope/codescope-go/internal/config"
	"github.com/codescope/codescope-go/internal/engine"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "codescope",
	Short: "CodeScope - local-first code intelligence for your projects",
	Long: `CodeScope indexes a project into symbols, dependency graphs and code
embeddings, then answers context, search, analytics and completion
requests from the CLI or any MCP client.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize logger
		logger = logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.codescope/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Set custom version template
	rootCmd.SetVersionTemplate(`CodeScope {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	// Add subcommands
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(serveCmd)
}

// newEngine builds the engine and hands back a cleanup that releases
// every backend handle.
func newEngine(ctx context.Context) (*engine.Engine, func()) {
	eng := engine.New(ctx, cfg, logger)
	return eng, func() { eng.Close(context.Background()) }
}

// workingRoot resolves the project root for commands that operate on
// the current directory.
func workingRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return cwd, nil
}

// ensureIndexed indexes root so search and completion commands have a
// live index and embeddings to work from. Snapshot hits keep re-runs
// fast.
func ensureIndexed(ctx context.Context, eng *engine.Engine, root string) error {
	if _, err := eng.IndexProject(ctx, root); err != nil {
		return fmt.Errorf("index %s: %w", root, err)
	}
	return nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
