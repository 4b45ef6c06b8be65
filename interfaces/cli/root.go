// Package cli provides the qgraph command-line interface: offline
// validation, round-tripping and layout of questionnaire record files.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"questionnaire-builder/application/ports"
	"questionnaire-builder/application/services"
	infraconfig "questionnaire-builder/infrastructure/config"
	"questionnaire-builder/infrastructure/identity"
	"questionnaire-builder/infrastructure/layout"
	"questionnaire-builder/infrastructure/persistence/memory"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configFile    string
	environment   string
	output        string
	deterministic bool
	verbose       bool
}

type toolkitKey struct{}

// toolkit is the service stack a subcommand runs against.
type toolkit struct {
	service *services.QuestionnaireService
	opts    *options
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "qgraph",
		Short: "qgraph - questionnaire record tooling",
		Long: `qgraph imports, validates, exports and lays out questionnaire record
lists offline, using the same rules as the questionnaire builder service.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			if opts.output != "text" && opts.output != "json" {
				return fmt.Errorf("unknown output format %q (want text or json)", opts.output)
			}
			kit, err := newToolkit(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, toolkitKey{}, kit))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "domain configuration YAML overlay")
	rootCmd.PersistentFlags().StringVar(&opts.environment, "env", "development", "environment whose domain defaults apply")
	rootCmd.PersistentFlags().StringVar(&opts.output, "output", "text", "output format (text|json)")
	rootCmd.PersistentFlags().BoolVar(&opts.deterministic, "deterministic", false, "use sequential identifiers instead of UUIDs")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log import diagnostics to stderr")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newRoundtripCommand())
	rootCmd.AddCommand(newCriteriaCommand())
	rootCmd.AddCommand(newLayoutCommand())

	return rootCmd
}

func newToolkit(opts *options) (*toolkit, error) {
	cfg, err := infraconfig.LoadDomainConfig(opts.configFile, opts.environment)
	if err != nil {
		return nil, err
	}
	configs := infraconfig.NewStaticDomainConfig(cfg)

	logger := zap.NewNop()
	if opts.verbose {
		devLogger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		logger = devLogger
	}

	var ids ports.IDProvider = identity.NewUUIDProvider()
	if opts.deterministic {
		ids = identity.NewSequenceProvider("qg")
	}

	svc := services.NewQuestionnaireService(
		memory.NewSessionStore(0),
		nil,
		ids,
		layout.NewResilientEngine(layout.NewLayeredEngine(configs), configs, layout.DefaultBreakerConfig(), logger),
		configs,
		nil,
		logger,
	)
	return &toolkit{service: svc, opts: opts}, nil
}

func toolkitFrom(cmd *cobra.Command) (*toolkit, error) {
	kit, ok := cmd.Context().Value(toolkitKey{}).(*toolkit)
	if !ok {
		return nil, fmt.Errorf("command context is not initialised")
	}
	return kit, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display qgraph version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "qgraph v%s (%s)\n", Version, GitCommit)
		},
	}
}
