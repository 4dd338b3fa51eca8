package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lyceum-io/lyceum/client"
	"github.com/lyceum-io/lyceum/internal/profile"
	"github.com/lyceum-io/lyceum/store"
	"github.com/lyceum-io/lyceum/store/db"
)

var version = "dev"

var (
	flagMode        string
	flagData        string
	flagDSN         string
	flagServerURL   string
	flagAccessToken string
	flagConfig      string

	instanceProfile *profile.Profile
)

var rootCmd = &cobra.Command{
	Use:   "lyceum",
	Short: "Terminal client for the Lyceum learning assistant",
	Long: `lyceum is a terminal client for the Lyceum academic platform's
learning assistant. Conversations are kept on the backend and mirrored into a
local store, so chatting keeps working while the backend is unreachable.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		p := &profile.Profile{
			Mode:        flagMode,
			Data:        flagData,
			DSN:         flagDSN,
			ServerURL:   flagServerURL,
			AccessToken: flagAccessToken,
			Version:     version,
		}
		p.FromEnv()
		if err := p.FromFile(flagConfig); err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return err
		}

		level := slog.LevelWarn
		if p.IsDev() {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		instanceProfile = p
		return nil
	},
}

// newStore wires the backend client (when a server URL is configured) and
// the local fallback driver into a conversation store.
func newStore() (*store.Store, error) {
	driver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, err
	}
	ctx := rootCmd.Context()
	if initialized, err := driver.IsInitialized(ctx); err != nil || !initialized {
		if err := driver.Migrate(ctx); err != nil {
			driver.Close()
			return nil, err
		}
	}

	var remote store.Remote
	if instanceProfile.ServerURL != "" {
		c, err := client.NewClient(instanceProfile)
		if err != nil {
			driver.Close()
			return nil, err
		}
		remote = c
	}
	return store.New(remote, driver, instanceProfile), nil
}

func newClient() (*client.Client, error) {
	if instanceProfile.ServerURL == "" {
		return nil, fmt.Errorf("no server configured: set --server-url or LYCEUM_SERVER_URL")
	}
	return client.NewClient(instanceProfile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", `mode of the client ("prod", "dev" or "demo")`)
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "data directory for the local fallback store")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "path of the local database file")
	rootCmd.PersistentFlags().StringVar(&flagServerURL, "server-url", "", "base URL of the Lyceum backend")
	rootCmd.PersistentFlags().StringVar(&flagAccessToken, "access-token", "", "bearer token for the backend")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
}
