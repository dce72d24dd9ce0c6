package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/liliang-cn/standbot/internal/config"
	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	root := &cobra.Command{
		Use:   "standbot",
		Short: "Exhibitor chatbot for trade fair websites",
		Long: strings.TrimSpace(`standbot answers visitor questions about exhibitors, stands and
products for the Flooring Fair Days, Abiss and Artisan websites.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	setup := func() (*config.Config, *zap.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		logger, err := newLogger(debug)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create logger: %w", err)
		}
		return cfg, logger, nil
	}

	root.AddCommand(newServeCommand(setup))
	root.AddCommand(newImportCommand(setup))
	root.AddCommand(newVersionCommand())

	return root
}

type setupFunc func() (*config.Config, *zap.Logger, error)

func newServeCommand(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Run the widget and admin HTTP API",
		Example: "  standbot serve --config config.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			printBanner()
			return serve(cfg, logger)
		},
	}
}

func newImportCommand(setup setupFunc) *cobra.Command {
	var website string

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import exhibitor documents from a JSON file",
		Example: strings.Join([]string{
			"  standbot import exhibitors.json",
			"  standbot import exposanten.json --website abiss",
		}, "\n"),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			return importFile(cmd.Context(), cfg, logger, args[0], domain.NormalizeWebsite(website))
		},
	}
	cmd.Flags().StringVarP(&website, "website", "w", domain.WebsiteFFD, "Website the documents belong to (ffd, abiss, artisan)")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "standbot %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
