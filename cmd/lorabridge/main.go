package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientcmd "github.com/rzbill/lorabridge/internal/cmd/client"
	serverrun "github.com/rzbill/lorabridge/internal/cmd/server"
	cfgpkg "github.com/rzbill/lorabridge/internal/config"
	logpkg "github.com/rzbill/lorabridge/pkg/log"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "lorabridge",
		Short: "LoRa-to-IP gateway",
		Long:  "lorabridge bridges a LoRa radio to IP networks and keeps a bounded in-memory event log. This CLI runs the gateway and talks to a running one.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "lorabridge", version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the gateway (HTTP, gRPC, radio loop, NTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := logpkg.ApplyConfig(&cfg.Log)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			for {
				err := serverrun.Run(ctx, serverrun.Options{Config: cfg, Logger: logger})
				if errors.Is(err, serverrun.ErrRestartRequested) && ctx.Err() == nil {
					logger.Info("restarting")
					continue
				}
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				// brief delay to allow logs flush
				time.Sleep(100 * time.Millisecond)
				return nil
			}
		},
	}
	serverStartCmd.Flags().String("config", os.Getenv("LORABRIDGE_CONFIG"), "Config file (.yaml, .yml or .json)")
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default :8080)")
	serverStartCmd.Flags().String("grpc", "", "gRPC listen address (default :9090)")
	serverStartCmd.Flags().String("fsync", "", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().String("radio", "", "Radio driver: none|udp|loopback")
	serverStartCmd.Flags().String("site-id", "", "Site ID used until one is saved from the dashboard")
	serverStartCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", "", "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	clientcmd.AddCommands(rootCmd, apiURL)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, LORABRIDGE_* variables and
// flags, in that order.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	cfg := cfgpkg.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = cfgpkg.Load(path); err != nil {
			return cfg, err
		}
	}
	cfgpkg.FromEnv(&cfg)

	set := func(flag string, dst *string) {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			*dst = v
		}
	}
	set("data-dir", &cfg.DataDir)
	set("http", &cfg.HTTPAddr)
	set("grpc", &cfg.GRPCAddr)
	set("fsync", &cfg.Fsync)
	set("radio", &cfg.Radio.Driver)
	set("site-id", &cfg.Device.SiteID)
	set("log-level", &cfg.Log.Level)
	set("log-format", &cfg.Log.Format)
	return cfg, nil
}

func apiURL() string {
	if v := os.Getenv("LORABRIDGE_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
