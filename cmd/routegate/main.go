package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zen-systems/routegate/pkg/config"
)

var (
	configFile string
	debugFlag  bool
	tierFlag   string
	policyFlag string
	aliases    *config.ModelAliases
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "routegate",
		Short: "Prompt router with multi-factor model scoring and fallback execution",
		Long: `Routegate classifies each prompt, scores every model in the catalog
against it, and executes the request on the best model with an ordered
fallback chain.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to routing config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&tierFlag, "tier", "", "user tier override (free, paid)")
	rootCmd.PersistentFlags().StringVar(&policyFlag, "policy", "", "selection policy override (rank, evaluation)")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(evalsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp builds the app for a command and tears it down afterwards.
func withApp(fn func(a *app) error) error {
	logger, err := newLogger(debugFlag)
	if err != nil {
		return err
	}
	a, err := newApp(logger)
	if err != nil {
		_ = logger.Sync()
		return err
	}
	defer a.close()
	return fn(a)
}
