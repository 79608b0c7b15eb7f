package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/adamwoolhether/tusc/internal/tusd"
	"github.com/adamwoolhether/tusc/internal/tusd/server"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an in-memory tus server",
		Long: `Run an in-memory tus 1.0.0 server supporting the creation, termination
and checksum (sha1) extensions. Uploads are lost when the process exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			maxSize, err := parseSize(a.v.GetString("max-size"))
			if err != nil {
				return fmt.Errorf("--max-size: %w", err)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			cfg := tusd.Config{
				BasePath: a.v.GetString("base-path"),
				MaxSize:  maxSize,
			}
			h, err := tusd.New(cfg, tusd.WithLogger(a.logger), tusd.WithRegistry(reg))
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle(cfg.BasePath, h)
			if path := strings.TrimSpace(a.v.GetString("metrics-path")); path != "" {
				mux.Handle("GET "+path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			}

			opts := []server.Option{
				server.WithLogger(a.logger),
				server.WithHost(a.v.GetString("listen")),
				server.WithShutdownFunc(func(context.Context) error {
					a.logger.Info("dropping uploads", "count", h.Store().Len())
					return nil
				}),
			}
			if a.listener != nil {
				opts = append(opts, server.WithListener(a.listener))
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "serving tus uploads at %s\n", cfg.BasePath)

			return server.New(mux, opts...).Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("listen", ":1080", "listen address")
	flags.String("base-path", tusd.DefaultBasePath, "path uploads are created under; must start and end with /")
	flags.String("max-size", "0", "largest accepted upload, e.g. 1GiB; 0 for no limit")
	flags.String("metrics-path", "/metrics", "Prometheus scrape path; empty disables")

	bindFlags(a.v, flags, "listen", "base-path", "max-size", "metrics-path")

	return cmd
}
