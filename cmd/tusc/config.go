package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/adamwoolhether/tusc/client"
	"github.com/adamwoolhether/tusc/internal/validate"
)

// config is the resolved global configuration, from flags, TUSC_*
// environment variables and the optional config file, in that order of
// precedence.
type config struct {
	LogLevel  string        `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	LogFormat string        `mapstructure:"log-format" validate:"oneof=text json"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	ChunkSize int64         `mapstructure:"chunk-size" validate:"gte=1"`
	LimitRate int64         `mapstructure:"limit-rate" validate:"gte=0"`
	UserAgent string        `mapstructure:"user-agent"`
	Headers   http.Header   `mapstructure:"-"`
}

// loadConfigFile reads the file named by the "config" key, if any.
func loadConfigFile(v *viper.Viper) (string, error) {
	path := strings.TrimSpace(v.GetString("config"))
	if path == "" {
		return "", nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("config path %q: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("config file %q: %w", abs, err)
	}

	v.SetConfigFile(abs)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read config file %q: %w", abs, err)
	}

	return abs, nil
}

func resolveConfig(v *viper.Viper) (config, error) {
	cfg := config{
		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString("log-level"))),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString("log-format"))),
		Timeout:   v.GetDuration("timeout"),
		UserAgent: v.GetString("user-agent"),
		Headers:   http.Header{},
	}

	chunk, err := parseSize(v.GetString("chunk-size"))
	if err != nil {
		return config{}, fmt.Errorf("--chunk-size: %w", err)
	}
	cfg.ChunkSize = chunk

	if raw := v.GetString("limit-rate"); raw != "" {
		if cfg.LimitRate, err = parseSize(raw); err != nil {
			return config{}, fmt.Errorf("--limit-rate: %w", err)
		}
	}

	for _, h := range v.GetStringSlice("header") {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return config{}, fmt.Errorf("--header %q: want \"Name: value\"", h)
		}
		cfg.Headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	if err := validate.Check(cfg); err != nil {
		return config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func parseSize(raw string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("%s is too large", raw)
	}

	return int64(n), nil
}

func newLogger(cfg config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

func buildClient(cfg config, logger *slog.Logger) (*client.Client, error) {
	opts := []client.Option{
		client.WithLogger(logger),
		client.WithChunkSize(cfg.ChunkSize),
		client.WithTimeout(cfg.Timeout),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(cfg.UserAgent))
	}
	if cfg.LimitRate > 0 {
		opts = append(opts, client.WithBandwidth(cfg.LimitRate))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, client.WithHeaders(cfg.Headers))
	}

	return client.Build(opts...)
}
