package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/adamwoolhether/tusc/client"
	"github.com/adamwoolhether/tusc/client/protocol"
)

func newUploadCommand(a *app) *cobra.Command {
	var endpoint, uploadURL string
	var metadata []string
	var quiet bool
	var concurrency int

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files, creating the uploads first unless --url names an existing one",
		Long: `Upload one or more files. A single file may resume an existing upload
with --url. Several files each get a new upload at --endpoint and are sent
concurrently; their URLs are printed one per line in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return uploadMany(cmd, a, args, endpoint, uploadURL, metadata, concurrency, quiet)
			}

			path := args[0]
			if (endpoint == "") == (uploadURL == "") {
				return errors.New("exactly one of --endpoint or --url is required")
			}

			fi, err := statFile(path)
			if err != nil {
				return err
			}

			pairs, err := parseMetadata(metadata)
			if err != nil {
				return err
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			if uploadURL == "" {
				pairs = append([]protocol.Pair{{Key: client.MetadataFilename, Value: filepath.Base(path)}}, pairs...)
				if uploadURL, err = c.Create(cmd.Context(), endpoint, fi.Size(), pairs...); err != nil {
					return err
				}
				a.logger.Info("upload created", "url", uploadURL)
			}

			h := c.UploadFile(cmd.Context(), uploadURL, path)
			if !quiet {
				p := &progressPrinter{w: cmd.ErrOrStderr()}
				h.Subscribe(p.print)
				defer p.done()
			}

			if err := h.Wait(); err != nil {
				return fmt.Errorf("upload %s: %w", uploadURL, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), uploadURL)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&endpoint, "endpoint", "e", "", "creation URL of the tus server")
	flags.StringVarP(&uploadURL, "url", "u", "", "URL of an existing upload to resume (single file only)")
	flags.StringArrayVarP(&metadata, "metadata", "m", nil, "extra metadata pair key=value, single file only (repeatable)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	flags.IntVarP(&concurrency, "concurrency", "j", 2, "files uploaded at once when several are given; 0 for no limit")

	return cmd
}

// uploadMany creates and sends one upload per path through
// Client.UploadAll. URLs of uploads that were created are printed even
// when others fail, so they can be resumed.
func uploadMany(cmd *cobra.Command, a *app, paths []string, endpoint, uploadURL string, metadata []string, concurrency int, quiet bool) error {
	switch {
	case uploadURL != "":
		return errors.New("--url resumes a single upload; pass one file")
	case endpoint == "":
		return errors.New("--endpoint is required when uploading several files")
	case len(metadata) > 0:
		return errors.New("--metadata applies to single-file uploads only")
	case concurrency < 0:
		return fmt.Errorf("--concurrency %d must not be negative", concurrency)
	}

	for _, path := range paths {
		if _, err := statFile(path); err != nil {
			return err
		}
	}

	c, err := a.client()
	if err != nil {
		return err
	}

	var progress client.BatchProgressFunc
	if !quiet {
		progress = (&batchPrinter{w: cmd.ErrOrStderr(), finished: make(map[string]bool)}).print
	}

	urls, err := c.UploadAll(cmd.Context(), endpoint, paths, concurrency, progress)
	for _, u := range urls {
		if u != "" {
			fmt.Fprintln(cmd.OutOrStdout(), u)
		}
	}
	if err != nil {
		return fmt.Errorf("uploading %d files: %w", len(paths), err)
	}

	return nil
}

func statFile(path string) (os.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return fi, nil
}

// batchPrinter writes one line per file once it is fully sent. Events
// of concurrent uploads arrive on different goroutines.
type batchPrinter struct {
	w        io.Writer
	mu       sync.Mutex
	finished map[string]bool
}

func (p *batchPrinter) print(path string, transferred, total int64) {
	if transferred < total {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished[path] {
		return
	}
	p.finished[path] = true
	fmt.Fprintf(p.w, "%s: %s sent\n", path, humanize.IBytes(uint64(total)))
}

// progressPrinter rewrites one status line whenever the whole-percent
// value changes.
type progressPrinter struct {
	w       io.Writer
	percent int
	printed bool
}

func (p *progressPrinter) print(transferred, total int64) {
	percent := 100
	if total > 0 {
		percent = int(transferred * 100 / total)
	}
	if p.printed && percent == p.percent {
		return
	}

	p.percent = percent
	p.printed = true
	fmt.Fprintf(p.w, "\r%s / %s (%d%%)", humanize.IBytes(uint64(transferred)), humanize.IBytes(uint64(total)), percent)
}

func (p *progressPrinter) done() {
	if p.printed {
		fmt.Fprintln(p.w)
	}
}
