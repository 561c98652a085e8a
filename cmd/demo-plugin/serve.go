package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/green-ecolution/demo-plugin/internal/build"
	"github.com/green-ecolution/demo-plugin/internal/config"
	"github.com/green-ecolution/demo-plugin/internal/counter"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
	"github.com/green-ecolution/demo-plugin/pkg/middleware"
	"github.com/green-ecolution/demo-plugin/pkg/plugin"
	"github.com/green-ecolution/demo-plugin/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port        int
		host        string
		dist        string
		maxSessions int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the plugin server",
		Long: `Serve the plugin bundle, the live endpoint and the health and
metrics endpoints. The bundle is built in memory unless --dist names a
directory written by "demo-plugin build".

When HOST_PATH is set the plugin registers with the host using
CLIENT_ID and CLIENT_SECRET and keeps a heartbeat running.

Examples:
  demo-plugin serve
  demo-plugin serve --port=9000 --dist=dist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if dist != "" {
				cfg.Server.Dist = dist
			}
			return runServe(cmd.Context(), cfg, maxSessions)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from plugin.json or PLUGIN_PORT)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Interface to bind to")
	cmd.Flags().StringVar(&dist, "dist", "", "Serve a prebuilt bundle directory")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "Limit concurrent live sessions (0 = no limit)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, maxSessions int) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bundle, container, err := loadBundle(ctx, cfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(middleware.WithRegistry(registry))

	srvCfg := server.DefaultServerConfig()
	srvCfg.Address = cfg.Address()
	srvCfg.PluginName = cfg.Plugin.Name
	srvCfg.Version = version
	srvCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	srvCfg.CheckOrigin = server.OriginAllowlist(cfg.Server.AllowedOrigins)
	srvCfg.MaxSessions = maxSessions
	srvCfg.ShutdownTimeout = cfg.ShutdownAfter()
	srvCfg.Metrics = metrics
	srvCfg.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})

	srv := server.New(srvCfg, bundle, container)

	var worker *plugin.Worker
	if cfg.Host.Path != "" {
		if worker, err = newWorker(cfg, metrics); err != nil {
			return err
		}
	} else {
		slog.Info("HOST_PATH not set, skipping host registration")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	if worker != nil {
		g.Go(func() error {
			if _, err := worker.Register(ctx, cfg.Host.ClientID, cfg.Host.ClientSecret); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			return worker.RunHeartbeat(ctx)
		})
	}

	return g.Wait()
}

// loadBundle reads the bundle from the dist directory or builds it in
// memory, and returns the container live sessions mount components from.
func loadBundle(ctx context.Context, cfg *config.Config) (*build.Bundle, *federation.Container, error) {
	if cfg.Server.Dist == "" {
		container := federation.NewContainer(cfg.Federation)
		counter.Provide(container)
		bundle, err := build.New(cfg, container, build.Options{Version: version}).Bundle(ctx)
		if err != nil {
			return nil, nil, err
		}
		return bundle, container, nil
	}

	bundle, err := build.LoadDir(cfg.Server.Dist)
	if err != nil {
		return nil, nil, err
	}
	container := federation.NewContainer(bundle.Manifest)
	counter.Provide(container)
	if err := container.Check(); err != nil {
		return nil, nil, err
	}
	slog.Info("serving prebuilt bundle", "dir", cfg.Server.Dist, "files", len(bundle.Files()))
	return bundle, container, nil
}

// newWorker creates the registration and heartbeat worker.
func newWorker(cfg *config.Config, recorder plugin.HeartbeatRecorder) (*plugin.Worker, error) {
	hostURL, err := cfg.HostURL()
	if err != nil {
		return nil, err
	}
	publicURL, err := cfg.PublicURL()
	if err != nil {
		return nil, err
	}

	return plugin.NewWorker(
		plugin.WithHost(hostURL),
		plugin.WithPlugin(plugin.Plugin{
			Slug:           cfg.Plugin.Slug,
			Name:           cfg.Plugin.Name,
			Version:        version,
			Description:    cfg.Plugin.Description,
			PluginHostPath: publicURL,
		}),
		plugin.WithHostAPIVersion(cfg.Host.APIVersion),
		plugin.WithHeartbeatInterval(cfg.HeartbeatEvery()),
		plugin.WithRecorder(recorder),
	)
}
