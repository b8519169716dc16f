// Package cli provides the command-line interface for modelbridge.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/modelbridge/internal/cli/commands"
	"github.com/leapstack-labs/modelbridge/internal/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "modelbridge",
		Short: "modelbridge - staging tables for semantic models",
		Long: `modelbridge rewrites the complex relationships of a semantic model,
composite keys and repeated joins between the same tables, into
relationships the target model can represent.

Each group of complex relationships is resolved either by a bridge
dimension (star_schema) or by a pre-joined combination table
(merged_tables).`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(cfgFile, cwd, cmd.Flags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd, cfg.Verbose)
			if cfg.ConfigFile != "" {
				logger.Debug("using config file", slog.String("path", cfg.ConfigFile))
			}
			for _, w := range cfg.Warnings() {
				logger.Warn(w)
			}

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./"+config.ConfigFileName+")")
	rootCmd.PersistentFlags().String("model", "", "Path to the model file")
	rootCmd.PersistentFlags().String("relationships", "", "Path to the relationship record file")
	rootCmd.PersistentFlags().String("baselines", "", "Baseline store (directory or .db file)")
	rootCmd.PersistentFlags().String("output-dir", "", "Output store (directory or .db file)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputText, config.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewResolveCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewBaselineCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger logs text to the command's error stream: warnings and errors
// by default, everything when verbose.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for modelbridge.

To load completions:

Bash:
  $ source <(modelbridge completion bash)

Zsh:
  $ modelbridge completion zsh > "${fpath[1]}/_modelbridge"

Fish:
  $ modelbridge completion fish | source

PowerShell:
  PS> modelbridge completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
