package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/cmd/gitmesh/helper"
	"github.com/gitmesh/gitmesh/pkg/client"
	"github.com/gitmesh/gitmesh/pkg/config"
	"github.com/gitmesh/gitmesh/pkg/crypto"
	"github.com/gitmesh/gitmesh/pkg/seed"
)

func main() {
	defer klog.Flush()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gitmesh",
	Short: "Peer-to-peer repository relay and registry",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		time.Local = time.UTC
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the WebSocket relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		configInit := helper.NewConfigInitializer()
		if err := configInit.LoadDebugEnvironment(); err != nil {
			return fmt.Errorf("load env: %w", err)
		}

		gdb, err := configInit.OpenDatabase()
		if err != nil {
			return err
		}
		store, err := configInit.OpenStore()
		if err != nil {
			return err
		}
		registerConfig := configInit.InitializeRegisterConfig(gdb, store)

		serverRunner := helper.NewServerRunner(configInit.GetBackendConfig())
		if err := serverRunner.StartCronJobs(registerConfig); err != nil {
			return fmt.Errorf("start cron jobs: %w", err)
		}
		serverRunner.StartServer(registerConfig)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := helper.NewConfigInitializer().OpenDatabase(); err != nil {
			return err
		}
		klog.Info("database is up to date")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		configInit := helper.NewConfigInitializer()
		gdb, err := configInit.OpenDatabase()
		if err != nil {
			return err
		}
		store, err := configInit.OpenStore()
		if err != nil {
			return err
		}
		s := &seed.Seeder{DB: gdb, Store: store, KeyGen: crypto.GenerateKeyPair}
		seeded, err := s.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if !seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "database already populated, nothing to do")
		}
		return nil
	},
}

var statsServer string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the network stats and active peers of a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		c := client.New(statsServer)
		stats, err := c.Stats(ctx)
		if err != nil {
			return fmt.Errorf("fetch stats: %w", err)
		}
		peers, err := c.ActivePeers(ctx)
		if err != nil {
			return fmt.Errorf("fetch peers: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"stats": stats, "peers": peers})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&config.Path, "config", "", "path to the YAML config file")
	statsCmd.Flags().StringVar(&statsServer, "server", "http://localhost:8080", "base URL of the GitMesh server")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, statsCmd)
}
