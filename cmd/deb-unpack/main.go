// Command deb-unpack extracts a Debian package into a working directory and
// prints its metadata.
package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/etnz/deb-unpack/deb"
	"github.com/etnz/deb-unpack/manifest"
)

func main() {
	os.Exit(run(tintHandler(os.Stderr), os.Stdout, os.Args[1:]))
}

// tintHandler returns a constructor for colored stderr handlers.
func tintHandler(w io.Writer) func(slog.Leveler) slog.Handler {
	return func(level slog.Leveler) slog.Handler {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}
}

// run executes the command line and returns the process exit status. Logs
// go to a handler built by newHandler around the level of this run.
func run(newHandler func(slog.Leveler) slog.Handler, stdout io.Writer, args []string) int {
	level := new(slog.LevelVar)
	l := slog.New(newHandler(level))

	root := newRootCmd(l, level, stdout)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		l.Error("failed to unpack", "err", err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps an error to the process exit status. Each deb error kind
// has its own status; anything else, including usage errors, is 1.
func exitCode(err error) int {
	switch deb.KindOf(err) {
	case deb.KindNotFound:
		return 2
	case deb.KindNotAFile:
		return 3
	case deb.KindWrongExtension:
		return 4
	case deb.KindContainerOpen:
		return 5
	case deb.KindMaterialize:
		return 6
	case deb.KindUnsupportedCompression:
		return 7
	case deb.KindTarUnpack:
		return 8
	case deb.KindControlRead:
		return 9
	default:
		return 1
	}
}

func newRootCmd(l *slog.Logger, level *slog.LevelVar, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deb-unpack <package.deb>",
		Short: "Extract a Debian package and print its metadata",
		Args:  cobra.ExactArgs(1),

		// Don't show CLI usage on error.
		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.Debug {
				level.Set(slog.LevelDebug)
			}
			return unpack(l, stdout, args[0], cfg)
		},
	}

	f := cmd.Flags()
	f.String("config", defaultConfigPath, "path to a YAML or JSON config file")
	f.String("work-dir", "", "extract into this directory instead of a temporary one (never removed)")
	f.Bool("keep", false, "keep the temporary working directory")
	f.String("format", string(manifest.FormatJSON), "output format: json, yaml or control")
	f.String("template", "", "Go text/template rendering the output, overrides --format")
	f.Bool("safe-paths", true, "confine extracted paths to the working directory")
	f.Bool("debug", false, "enable verbose debug logs")
	return cmd
}

func unpack(l *slog.Logger, stdout io.Writer, path string, cfg *Config) error {
	// Reject bad input before creating anything.
	if err := deb.ValidatePath(path); err != nil {
		return err
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "deb-unpack-")
		if err != nil {
			return err
		}
		workDir = dir
		if cfg.Keep {
			l.Info("keeping working directory", "dir", workDir)
		} else {
			defer os.RemoveAll(workDir)
		}
	}

	l.Info("processing package", "path", path, "work_dir", workDir)
	res, err := deb.Unpack(path, deb.Options{
		WorkDir:   workDir,
		SafePaths: cfg.SafePaths,
		Listener:  logListener(l),
	})
	if err != nil {
		return err
	}

	view := manifest.View{Control: res.Control}
	if cfg.Template != "" || cfg.Format != manifest.FormatControl {
		if view.Info, err = manifest.FromResult(res); err != nil {
			return err
		}
	}
	return manifest.Render(stdout, cfg.Format, cfg.Template, view)
}
