package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"escargot/internal/runtime"
	"escargot/pkg/escargot"
)

var watchFlag bool

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Evaluate a script file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		eng := loadEngineConfig()

		if !watchFlag {
			if err := runOnce(eng, path); err != nil {
				os.Exit(1)
			}
			return nil
		}
		return runWatching(cmd.Context(), eng, path)
	},
}

func init() {
	runCmd.Flags().BoolVar(&watchFlag, "watch", false, "re-run the script each time it changes on disk")
}

func runOnce(eng engineOpts, path string) error {
	vm := newVM(eng)
	v, err := vm.EvaluateFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, escargot.FormatError(err))
		return err
	}
	if !v.IsUndefined() {
		fmt.Fprintln(os.Stdout, runtime.ToStringGo(v))
	}
	return nil
}

// runWatching backs `run --watch`: every write to path re-runs the
// script against a fresh VM, surfacing errors without killing the
// watch loop, the same "keep the dev loop alive across bad edits"
// behavior a file-watching build tool aims for.
func runWatching(ctx context.Context, eng engineOpts, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return err
	}

	logger.Info("watching for changes", "file", path)
	runOnce(eng, path)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					logger.Info("change detected, re-running", "file", path)
					runOnce(eng, path)
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Error(werr, "watcher error")
			}
		}
	})
	return g.Wait()
}
