// Command avcfuzz drives a full decode session over every file in a corpus,
// the way a fuzz engine would call the harness once per input. It uses the
// pure-Go reference decoder, so a crash or hang here is a driver bug, not a
// codec bug.
package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lifehackerhansol-android/android-external-libavc/fuzzer"
	"github.com/lifehackerhansol-android/android-external-libavc/refdec"
)

var version = "dev"

type rootOptions struct {
	jobs    int
	maxSize int64
}

var opts rootOptions

var rootCmd = &cobra.Command{
	Use:           "avcfuzz <corpus-dir-or-file>...",
	Short:         "Drive decode sessions over a corpus of elementary streams.",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Version = version
	rootCmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "concurrent sessions")
	rootCmd.Flags().Int64Var(&opts.maxSize, "max-size", 8<<20, "skip inputs larger than this many bytes")
}

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("corpus drive failed", "error", err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}
	slog.Info("driving corpus", "inputs", len(inputs), "jobs", opts.jobs)

	g := new(errgroup.Group)
	g.SetLimit(max(opts.jobs, 1))

	for _, path := range inputs {
		path := path
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if int64(len(data)) > opts.maxSize {
				slog.Debug("skipping oversized input", "path", path, "size", len(data))
				return nil
			}
			fuzzer.Run(refdec.New(), data)
			slog.Debug("session complete", "path", path, "size", len(data))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("corpus drive complete", "inputs", len(inputs))
	return nil
}

// collectInputs expands each argument into corpus files: directories are
// walked recursively, plain files taken as-is.
func collectInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				inputs = append(inputs, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return inputs, nil
}
