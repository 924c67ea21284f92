package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/esdeploy/internal/adapters/progress"
	"github.com/trebuchet-org/esdeploy/internal/app"
	"github.com/trebuchet-org/esdeploy/internal/config"
	"github.com/trebuchet-org/esdeploy/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// globalFlags are bound to viper keys of the same name with dashes replaced
var globalFlags = map[string]bool{
	"network":         true,
	"sender":          true,
	"debug":           true,
	"non-interactive": true,
	"json":            true,
	"check-code":      true,
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var (
		cancel context.CancelFunc
		sink   usecase.ProgressSink
	)

	rootCmd := &cobra.Command{
		Use:   "esdeploy",
		Short: "Deploy and wire the EasySwap contracts",
		Long: `esdeploy deploys the EasySwap vault and order book behind upgradeable
proxies, registers the order book with the vault and mints test NFTs on an
EVM test network. Deployed addresses are recorded in .esdeploy/addresses.json.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot)
			bindGlobalFlags(v, cmd)

			if v.GetBool("json") {
				color.NoColor = true
			}
			sink = newProgressSink(v)

			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			if appInstance.Config.Timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
			}
			cmd.SetContext(ctx)

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if s, ok := sink.(*progress.SpinnerSink); ok {
				s.Stop()
			}
			if cancel != nil {
				cancel()
			}
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("network", "n", "", "Network from esdeploy.toml to use (e.g., sepolia, local)")
	flags.String("sender", "", "Sender from esdeploy.toml to sign with (defaults to 'deployer')")
	flags.Bool("debug", false, "Enable debug output")
	flags.Bool("non-interactive", false, "Disable interactive prompts and confirmations")
	flags.Bool("json", false, "Output results as JSON")
	flags.Bool("check-code", false, "Check attached addresses for contract code before using them")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, c := range []*cobra.Command{
		NewDeployCmd(),
		NewAttachCmd(),
		NewWireCmd(),
		NewMintCmd(),
		NewRunCmd(),
	} {
		c.GroupID = "main"
		rootCmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{
		NewAddressesCmd(),
		NewConfigCmd(),
	} {
		c.GroupID = "management"
		rootCmd.AddCommand(c)
	}

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// bindGlobalFlags binds the global flags that have been changed to viper
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if globalFlags[f.Name] {
			v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
		}
	})
}

// newProgressSink picks the spinner for interactive terminals and a no-op
// sink for JSON or scripted runs
func newProgressSink(v *viper.Viper) usecase.ProgressSink {
	if v.GetBool("json") || v.GetBool("non_interactive") {
		return progress.NewNopSink()
	}
	return progress.NewSpinnerSink()
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
