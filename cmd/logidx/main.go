// Command logidx indexes a single large file and keeps the index current
// as the file grows, exposing the engine's three operations (index, tail,
// check) as CLI subcommands.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/logidx/internal/config"
	"github.com/standardbeagle/logidx/internal/debug"
	"github.com/standardbeagle/logidx/internal/indexing"
	"github.com/standardbeagle/logidx/internal/types"
	"github.com/standardbeagle/logidx/internal/version"
)

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Println(version.FullInfo())
	}

	app := &cli.App{
		Name:                   "logidx",
		Usage:                  "index and tail large log files",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "prefetch-depth",
				Usage: "number of reader chunks read ahead of the parser",
				Value: config.DefaultPrefetchDepth,
			},
			&cli.Int64Flag{
				Name:  "chunk-size",
				Usage: "reader chunk size in bytes",
				Value: config.DefaultChunkSizeBytes,
			},
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "force a text encoding instead of auto-detecting (utf8, utf16le, utf16be, utf32le, utf32be, locale8bit)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable verbose structured logging to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			indexCommand(),
			tailCommand(),
			checkCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "logidx:", err)
		os.Exit(1)
	}
}

func parseForcedEncoding(name string) (types.Encoding, error) {
	switch strings.ToLower(name) {
	case "":
		return types.EncodingUnknown, nil
	case "utf8":
		return types.EncodingUTF8, nil
	case "utf16le":
		return types.EncodingUTF16LE, nil
	case "utf16be":
		return types.EncodingUTF16BE, nil
	case "utf32le":
		return types.EncodingUTF32LE, nil
	case "utf32be":
		return types.EncodingUTF32BE, nil
	case "locale8bit":
		return types.EncodingLocale8Bit, nil
	default:
		return types.EncodingUnknown, fmt.Errorf("unknown encoding %q", name)
	}
}

// loadConfigWithOverrides reads .logidx.kdl from the target file's
// directory, then applies any explicitly-passed CLI flags on top of it.
func loadConfigWithOverrides(c *cli.Context, path string) (*config.Config, error) {
	cfg, err := config.Load(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("prefetch-depth") {
		cfg.Index.PrefetchDepth = c.Int("prefetch-depth")
	}
	if c.IsSet("chunk-size") {
		cfg.Index.ChunkSizeBytes = c.Int64("chunk-size")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func attachWorker(c *cli.Context, path string) (*indexing.Worker, error) {
	cfg, err := loadConfigWithOverrides(c, path)
	if err != nil {
		return nil, err
	}

	w := indexing.NewWorker(cfg.Index.PrefetchDepth)
	w.SetChunkSize(cfg.Index.ChunkSizeBytes)
	w.Attach(path)
	return w, nil
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "fully index a file and print the resulting summary",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("index requires a file path")
			}
			forced, err := parseForcedEncoding(c.String("encoding"))
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			w, err := attachWorker(c, path)
			if err != nil {
				return err
			}
			if !w.IndexAll(ctx, forced) {
				return fmt.Errorf("indexing interrupted")
			}

			printSummary(w.Data())
			return nil
		},
	}
}

func tailCommand() *cli.Command {
	return &cli.Command{
		Name:      "tail",
		Usage:     "index a file, then watch it and print events as it grows",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "watch-debounce-ms",
				Usage: "quiet period after a write before re-checking the file",
				Value: config.DefaultWatchDebounceMs,
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("tail requires a file path")
			}
			forced, err := parseForcedEncoding(c.String("encoding"))
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			w, err := attachWorker(c, path)
			if err != nil {
				return err
			}

			go printEvents(ctx, w)

			if !w.IndexAll(ctx, forced) {
				return fmt.Errorf("indexing interrupted")
			}
			printSummary(w.Data())

			debounce := durationMs(c.Int("watch-debounce-ms"))
			dw := indexing.NewDocumentWatcher(w, debounce)
			if err := dw.Watch(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			defer dw.Close()

			<-ctx.Done()
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "check whether a previously indexed file has changed; exit code conveys the result",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("check requires a file path")
			}

			w, err := attachWorker(c, path)
			if err != nil {
				return err
			}
			switch w.CheckFileChanges(context.Background()) {
			case types.FileUnchanged:
				fmt.Println("unchanged")
				return nil
			case types.FileDataAdded:
				fmt.Println("data_added")
				os.Exit(1)
			case types.FileTruncated:
				fmt.Println("truncated")
				os.Exit(2)
			}
			return nil
		},
	}
}

func printSummary(data *indexing.IndexingData) {
	hash := data.Hash()
	fmt.Printf("nb_lines=%d max_length=%d size=%d hash=%s\n",
		data.NbLines(), data.MaxLength(), data.Size(), hex.EncodeToString(hash.Hash[:]))
}

func printEvents(ctx context.Context, w *indexing.Worker) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.Events():
			switch ev.Kind {
			case indexing.EventProgress:
				fmt.Printf("indexing_progressed percent=%d\n", ev.Progress)
			case indexing.EventIndexingFinished:
				fmt.Printf("indexing_finished status=%s\n", ev.Status)
			case indexing.EventCheckFileChangesFinished:
				fmt.Printf("check_file_changes_finished status=%s\n", ev.FileStatus)
			}
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func durationMs(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
