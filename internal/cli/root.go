// Package cli implements the cobra-based command line of service-express.
//
// The tool has a single command: the root command takes the project
// directory as its positional argument and runs the whole scaffold flow.
// This file defines the command, its flags, and exit-code handling; the flow
// itself lives in scaffold.go and output formatting in output.go.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/service-express/internal/logging"
	"github.com/shinji-kodama/service-express/internal/model"
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// options holds the flag values of one command instance. Each call to
// NewRootCommand gets its own, so tests can build commands side by side.
type options struct {
	jsonOutput     bool   // --json: machine-readable output
	verbose        bool   // --verbose: debug logging
	skipInstall    bool   // --skip-install: scaffold only
	checkOnly      bool   // --check: run the safety check and stop
	gitInit        bool   // --git: initialize a Git repository
	preset         string // --preset: dependency preset file
	packageManager string // --package-manager: installer executable
	configFile     string // --config: alternate config file
}

// NewRootCommand creates the service-express command.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "service-express <project-directory> [options]",
		Short: "Scaffold a TypeScript Express service",
		Long: `service-express creates a new Express service skeleton in <project-directory>.

It writes package.json and .env, lays out src/ (modules, models, configs,
middleware, routes.ts, server.ts), and installs the runtime and development
dependencies with the configured package manager.

The target directory may already exist, but only if it holds nothing besides
version-control metadata, IDE settings, docs, or a license/readme. Stale
npm/yarn error logs from a previous failed run are removed automatically.

Examples:
  service-express my-api
  service-express my-api --skip-install
  service-express my-api --preset ./preset.yaml
  service-express my-api --check
  service-express my-api --git`,

		// Extra positional arguments and unknown flags are tolerated so that
		// wrapper scripts can pass through options meant for other tools.
		Args: cobra.MinimumNArgs(1),
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors lets Execute format errors as text or JSON.
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Setup(opts.verbose, cmd.ErrOrStderr())
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				logger := logging.For("cli")
				logger.Warn().Strs("ignored", args[1:]).Msg("Ignoring extra arguments")
			}
			return runScaffold(cmd, args[0], opts)
		},
	}

	rootCmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.Flags().BoolVar(&opts.skipInstall, "skip-install", false, "Write the scaffold without installing dependencies")
	rootCmd.Flags().BoolVar(&opts.checkOnly, "check", false, "Only check whether the directory is safe to scaffold into")
	rootCmd.Flags().BoolVar(&opts.gitInit, "git", false, "Initialize a Git repository with an initial commit")
	rootCmd.Flags().StringVar(&opts.preset, "preset", "", "Dependency preset file (.yaml, .yml, .json, .jsonc)")
	rootCmd.Flags().StringVar(&opts.packageManager, "package-manager", "", "Package manager executable (default from config, else npm)")
	rootCmd.Flags().StringVar(&opts.configFile, "config", "", "Config file (default ~/.service-express/config.yaml)")

	return rootCmd
}

// Execute runs the root command and exits the process on failure.
// CLIError values carry their own exit codes; other errors exit with 1.
// An interrupt cancels the command context, which stops running installs.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(int(HandleError(rootCmd, err)))
	}
}

// HandleError prints err in the command's output format and returns the exit
// code it maps to.
func HandleError(rootCmd *cobra.Command, err error) model.ExitCode {
	jsonOutput, _ := rootCmd.Flags().GetBool("json")
	w := rootCmd.ErrOrStderr()

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(w, jsonOutput, cliErr.Message, cliErr.Err)
		return cliErr.Code
	}

	printError(w, jsonOutput, err.Error(), nil)
	return model.ExitGeneralError
}
