package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pland/internal/config"
	"pland/internal/history"
	"pland/internal/httpapi"
	"pland/internal/patterns"
	"pland/internal/planner"
	"pland/internal/probe"
	"pland/internal/registry"
	"pland/internal/service"
	"pland/pkg/types"
)

type cliOptions struct {
	configPath string
	logLevel   string

	addr      string
	modelsDir string
}

// newRootCmd builds the pland command tree.
func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:           "pland",
		Short:         "Resource-aware model-load planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("PLAND_CONFIG"), "Path to config file (.yaml/.json/.toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("PLAND_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&opts.addr, "addr", envOr("PLAND_ADDR", ""), "HTTP listen address, e.g. :8080")
	root.PersistentFlags().StringVar(&opts.modelsDir, "models-dir", "", "Directory to scan for *.gguf model files")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newPlanCmd(opts))
	root.AddCommand(newDevicesCmd(opts))
	root.AddCommand(newPatternsCmd(opts))
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadConfig merges the config file (when given) with flag overrides and
// defaults.
func loadConfig(opts *cliOptions) (config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	if opts.modelsDir != "" {
		cfg.ModelsDir = opts.modelsDir
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.ModelsDir == "" {
		cfg.ModelsDir = "~/models/llm"
	}
	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// buildService assembles the planner and its collaborators from config.
func buildService(cfg config.Config, log zerolog.Logger, withHistory bool) (*service.Service, func(), error) {
	reg, err := registry.LoadDir(cfg.ModelsDir, cfg.Models)
	if err != nil {
		return nil, nil, fmt.Errorf("load models: %w", err)
	}

	prb := pickProbe(cfg)

	var pats *patterns.Store
	if cfg.PatternsPath != "" {
		path := cfg.PatternsPath
		pats = patterns.NewStore(func() (*patterns.Table, error) { return patterns.LoadFile(path) })
	} else {
		pats = patterns.NewStaticStore(patterns.NewTable(nil))
	}

	var hist *history.Store
	cleanup := func() {}
	if withHistory && cfg.HistoryPath != "" {
		hist, err = history.Open(cfg.HistoryPath, cfg.HistoryLimit)
		if err != nil {
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		cleanup = func() { _ = hist.Close() }
	}

	pl := planner.New(planner.Config{
		Probe:         prb,
		Metadata:      reg,
		Patterns:      pats,
		HostFreeBytes: probe.HostFreeBytes,
	})
	svc := service.New(service.Config{
		Planner:  pl,
		Registry: reg,
		Probe:    prb,
		Patterns: pats,
		History:  hist,
		Logger:   log,
	})
	return svc, cleanup, nil
}

// pickProbe maps config to an accelerator family probe. Static fixtures win
// when present so operators can pin an inventory; "nvidia" is the default
// family on hosts without fixtures.
func pickProbe(cfg config.Config) probe.Probe {
	switch cfg.Probe {
	case "none":
		return probe.None{}
	case "static":
		return staticFromConfig(cfg)
	case "nvidia":
		return probe.NewNvidiaSMI(cfg.NvidiaSMIBin)
	default:
		if len(cfg.Devices) > 0 {
			return staticFromConfig(cfg)
		}
		return probe.NewNvidiaSMI(cfg.NvidiaSMIBin)
	}
}

func staticFromConfig(cfg config.Config) probe.Probe {
	devices := make([]types.Device, 0, len(cfg.Devices))
	for _, d := range cfg.Devices {
		devices = append(devices, d.Device())
	}
	return probe.NewStatic(devices)
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the planning daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log := newLogger(opts.logLevel)
			svc, cleanup, err := buildService(cfg, log, true)
			if err != nil {
				return err
			}
			defer cleanup()

			httpapi.SetLogger(log)
			if cfg.MaxBodyKiB > 0 {
				httpapi.SetMaxBodyBytes(cfg.MaxBodyKiB << 10)
			}
			httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins)

			srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(svc)}
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Msg("pland listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-stop:
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("graceful shutdown error")
			}
			return nil
		},
	}
}

func newPlanCmd(opts *cliOptions) *cobra.Command {
	var (
		contextOverride int
		offloadLayers   int
		cpuOnly         bool
	)
	cmd := &cobra.Command{
		Use:   "plan <model-id>",
		Short: "Plan one model load and print the decision as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log := newLogger(opts.logLevel)
			svc, cleanup, err := buildService(cfg, log, false)
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := svc.Plan(cmd.Context(), types.PlanRequest{
				Model:           args[0],
				ContextOverride: contextOverride,
				OffloadLayers:   offloadLayers,
				CPUOnly:         cpuOnly,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().IntVar(&contextOverride, "context", 0, "Context-window override in tokens (0 = resolve automatically)")
	cmd.Flags().IntVar(&offloadLayers, "offload-layers", 0, "Layers to offload (0 = all)")
	cmd.Flags().BoolVar(&cpuOnly, "cpu-only", false, "Skip device placement")
	return cmd
}

func newDevicesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Print the current accelerator memory snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			devices, err := pickProbe(cfg).Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, types.DevicesResponse{Devices: devices})
		},
	}
}

func newPatternsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "Print the pattern-default table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.PatternsPath == "" {
				return errors.New("no patterns_path configured")
			}
			t, err := patterns.LoadFile(cfg.PatternsPath)
			if err != nil {
				return err
			}
			return printJSON(cmd, types.PatternsResponse{Patterns: t.Entries()})
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
