package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/hearthstay/server/pkg/client"
	"github.com/hearthstay/server/pkg/config"
	"github.com/hearthstay/server/pkg/logger"
	"github.com/hearthstay/server/pkg/output"
	"github.com/spf13/cobra"
)

var (
	configPath string
	apiURL     string
	authToken  string
	format     string
	verbose    bool

	api *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "hearthctl",
	Short: "Manage Hearthstay UI components",
	Long: `hearthctl manages the UI component descriptors served by the Hearthstay API.
Reads are public; creating, updating and deleting components needs an admin token
(--token or HEARTHSTAY_API_TOKEN).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return err
		}
		logger.Init(verbose)
		if err := output.SetFormat(format); err != nil {
			return err
		}

		api = client.FromConfig()
		if apiURL != "" {
			api = client.New(client.Options{
				BaseURL: apiURL,
				Token:   config.GetString("api.token"),
			})
		}
		if authToken != "" {
			api.SetAuthToken(authToken)
		}
		logger.Debug("hearthctl starting", "command", cmd.CommandPath())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/hearthstay/cli/config.toml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API server URL (overrides api.base_url)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "bearer token (overrides api.token)")
	rootCmd.PersistentFlags().StringVarP(&format, "output", "o", "", "output format: text, table or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(componentsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		output.PrintError("%v", err)
		if client.IsUnauthorized(err) || client.IsForbidden(err) {
			fmt.Fprintln(os.Stderr, "Writes need an admin token: hearthctl config set api.token <token>")
		}
		os.Exit(1)
	}
}
