package main

import (
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/adamwoolhether/tusc/client"
)

// app carries the state shared by every subcommand once the root's
// PersistentPreRunE has resolved it.
type app struct {
	v      *viper.Viper
	cfg    config
	logger *slog.Logger

	// listener, when set, is served by "serve" instead of --listen.
	listener net.Listener
}

func (a *app) client() (*client.Client, error) {
	c, err := buildClient(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("building client: %w", err)
	}

	return c, nil
}

func newRootCommand() *cobra.Command {
	return newRoot(&app{v: viper.New()})
}

func newRoot(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tusc",
		Short:         "tusc uploads files to tus servers, resuming after interruptions",
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: `
  # Discover what a server supports
  tusc info https://tusd.tusdemo.net/files/

  # Create an upload and send a file in 8MiB chunks, capped at 2MiB/s
  tusc upload ./video.mp4 --endpoint https://tusd.tusdemo.net/files/ --chunk-size 8MiB --limit-rate 2MiB

  # Resume an existing upload
  tusc upload ./video.mp4 --url https://tusd.tusdemo.net/files/24e533e0

  # Run a local in-memory server
  tusc serve --listen :1080
`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, err := loadConfigFile(a.v)
			if err != nil {
				return err
			}

			if a.cfg, err = resolveConfig(a.v); err != nil {
				return err
			}

			a.logger = newLogger(a.cfg, cmd.ErrOrStderr())
			if path != "" {
				a.logger.Debug("loaded config file", "path", path)
			}

			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP("config", "c", "", "path to a YAML, JSON or TOML config file")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.Duration("timeout", 0, "per-request timeout, 0 for none; must cover a whole chunk")
	flags.String("chunk-size", "5MiB", "bytes sent per PATCH request")
	flags.String("limit-rate", "", "cap upload bandwidth, e.g. 512KiB (per second)")
	flags.String("user-agent", "tusc/1.0", "User-Agent header")
	flags.StringArrayP("header", "H", nil, `extra request header, "Name: value" (repeatable)`)

	a.v.SetEnvPrefix("TUSC")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	bindFlags(a.v, flags)

	cmd.AddCommand(
		newInfoCommand(a),
		newCreateCommand(a),
		newUploadCommand(a),
		newHeadCommand(a),
		newDownloadCommand(a),
		newDeleteCommand(a),
		newServeCommand(a),
	)

	return cmd
}

// bindFlags binds the named flags of fs to v, or every flag when names
// is empty. Flag names are static, so a failure is a programming error.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, names ...string) {
	if len(names) == 0 {
		if err := v.BindPFlags(fs); err != nil {
			panic(err)
		}
		return
	}

	for _, name := range names {
		if err := v.BindPFlag(name, fs.Lookup(name)); err != nil {
			panic(err)
		}
	}
}
