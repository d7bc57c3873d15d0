package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/cuemby/rcspd/internal/history"
	"github.com/cuemby/rcspd/internal/rclog"
	"github.com/cuemby/rcspd/internal/rcmetrics"
	"github.com/cuemby/rcspd/internal/rpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Schedule RPC service",
	Long: `Run rcspd as a long-lived process exposing the Schedule RPC
(internal/rpc) over gRPC, for callers that run out-of-process from this
binary. Resource definitions and scheduling defaults come from a config
manifest's resources/groups/algorithm fields; its entities (if any) are
ignored — every request supplies its own.

A second HTTP listener serves /metrics (Prometheus exposition) and the
/health, /ready, /live probes.

Example:
  rcspd serve --addr :50051 --config resources.yaml --history-dir ./data`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":50051", "address for the Schedule gRPC service")
	serveCmd.Flags().String("metrics-addr", ":9090", "address for the /metrics, /health, /ready, /live HTTP endpoints (disabled if empty)")
	serveCmd.Flags().String("config", "", "manifest file supplying resources/groups/algorithm defaults")
	serveCmd.Flags().String("history-dir", "", "directory to record run history in (disabled if empty)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	configPath, _ := cmd.Flags().GetString("config")
	historyDir, _ := cmd.Flags().GetString("history-dir")

	var m manifest
	if configPath != "" {
		loaded, err := loadManifest(configPath)
		if err != nil {
			return err
		}
		m = *loaded
	}

	var hist *history.Store
	if historyDir != "" {
		var err error
		hist, err = history.Open(historyDir)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer hist.Close()
		rcmetrics.RegisterComponent("history", true, "")
	}

	rcmetrics.SetVersion(Version)

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", rcmetrics.Handler())
		mux.HandleFunc("/health", rcmetrics.HealthHandler())
		mux.HandleFunc("/ready", rcmetrics.ReadyHandler())
		mux.HandleFunc("/live", rcmetrics.LivenessHandler())

		go func() {
			rclog.Info(fmt.Sprintf("starting metrics listener on %s", metricsAddr))
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				rclog.Errorf("metrics listener stopped", err)
			}
		}()
	}

	server := rpc.NewServer(m.toResourceConfig(), m.toConfig(), nil, hist)
	rcmetrics.RegisterComponent("rpc", true, "")
	return server.Start(addr)
}
