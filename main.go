// rspeclint checks RSpec files for examples without descriptions.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phobologic/rspeclint/internal/config"
	"github.com/phobologic/rspeclint/internal/discover"
	"github.com/phobologic/rspeclint/internal/format"
	"github.com/phobologic/rspeclint/internal/lint"
	"github.com/phobologic/rspeclint/internal/model"
)

var version = "dev"

// errOffenses makes the process exit non-zero without printing an error.
var errOffenses = errors.New("offenses detected")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, errOffenses) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

type cli struct {
	stdout, stderr io.Writer
	logger         *zap.Logger

	configPath  string
	style       config.Style
	format      string
	maxFileSize int
	cachePath   string
	color       bool
	verbose     bool
	showVersion bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "rspeclint [flags] [paths...]",
		Short: "Check RSpec examples for missing or empty descriptions",
		Long: `rspeclint runs RSpec/ExampleWithoutDescription over spec files.

Directories are searched for files matching AllCops.Include (default *_spec.rb);
files named explicitly are always inspected. Configuration is read from
.rspeclint.yml in the first path, or from --config.

Enforced styles:
  always_allow      only flag explicit empty descriptions (it '' do)
  single_line_only  also flag multi-line examples without a description
  disallow          flag every example without a description`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.logger = newLogger(c.stderr, c.verbose)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
		RunE: c.lint,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	fs := root.Flags()
	fs.StringVarP(&c.configPath, "config", "c", "", "configuration file (default <path>/"+config.FileName+")")
	fs.VarP(&c.style, "style", "s", "enforced style: "+styleNames())
	fs.StringVarP(&c.format, "format", "f", "text", "output format: "+strings.Join(format.Names, ", "))
	fs.IntVar(&c.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "skip files larger than this many bytes (0 disables the limit)")
	fs.StringVar(&c.cachePath, "cache", "", "cache file path")
	fs.BoolVar(&c.color, "color", false, "colorize text output")
	fs.BoolVarP(&c.showVersion, "version", "V", false, "show version and exit")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newInitCmd(c))
	return root
}

func styleNames() string {
	names := make([]string, len(config.Styles))
	for i, s := range config.Styles {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// newLogger writes human-readable log lines to w. Warnings are always shown;
// verbose enables debug output.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func (c *cli) lint(cmd *cobra.Command, args []string) error {
	if c.showVersion {
		_, _ = fmt.Fprintf(c.stdout, "rspeclint %s\n", version)
		return nil
	}

	if !slices.Contains(format.Names, c.format) {
		return fmt.Errorf("%w %q", format.ErrUnknownFormat, c.format)
	}

	targets := args
	if len(targets) == 0 {
		targets = []string{"."}
	}

	cfg, cfgPath, err := c.loadConfig(targets[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("style") {
		cfg.ExampleWithoutDescription.EnforcedStyle = c.style
	}
	if cmd.Flags().Changed("max-file-size") {
		cfg.AllCops.MaxFileSize = &c.maxFileSize
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.logger.Debug("configuration",
		zap.String("path", cfgPath),
		zap.String("style", string(cfg.Style())),
		zap.Bool("enabled", cfg.Enabled()))

	if !cfg.Enabled() {
		c.logger.Info("RSpec/ExampleWithoutDescription is disabled")
		return format.Write(c.stdout, c.format, emptyReport(cfg), format.Options{Color: c.color})
	}

	files, err := collectFiles(targets, discover.Options{
		Include: cfg.AllCops.Include,
		Exclude: cfg.AllCops.Exclude,
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no spec files found")
	}
	c.logger.Debug("discovered files", zap.Int("count", len(files)))

	key := cacheKey(cfg.Style(), c.format, c.color, cfg.MaxFileSize(), files)
	if c.cachePath != "" {
		if out, offenses, ok := readCache(c.cachePath, key, cacheInputs(files, cfgPath)); ok {
			c.logger.Debug("using cache", zap.String("path", c.cachePath))
			_, _ = c.stdout.Write(out)
			return offenseErr(offenses)
		}
	}

	runner := &lint.Runner{
		Style:       cfg.Style(),
		MaxFileSize: cfg.MaxFileSize(),
		Logger:      c.logger,
	}
	report, err := runner.Run(cmd.Context(), files)
	if err != nil {
		return err
	}
	if report.Inspected == 0 {
		return fmt.Errorf("no files could be inspected")
	}

	var out bytes.Buffer
	if err := format.Write(&out, c.format, report, format.Options{Color: c.color}); err != nil {
		return err
	}

	if c.cachePath != "" {
		if err := writeCache(c.cachePath, key, report.OffenseCount(), out.Bytes()); err != nil {
			c.logger.Warn("writing cache", zap.Error(err))
		}
	}

	_, _ = c.stdout.Write(out.Bytes())
	return offenseErr(report.OffenseCount())
}

func offenseErr(n int) error {
	if n > 0 {
		return errOffenses
	}
	return nil
}

func (c *cli) loadConfig(target string) (*config.Config, string, error) {
	if c.configPath != "" {
		cfg, err := config.Load(c.configPath)
		return cfg, c.configPath, err
	}
	dir := target
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		dir = filepath.Dir(target)
	}
	return config.Find(dir)
}

// collectFiles expands directory targets through discovery and keeps file
// targets as given.
func collectFiles(targets []string, opts discover.Options) ([]lint.File, error) {
	var files []lint.File
	seen := make(map[string]struct{})
	add := func(path, abs string) {
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		files = append(files, lint.File{Path: path, Abs: abs})
	}

	for _, target := range targets {
		abs, err := filepath.Abs(target)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", target, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("path: %w", err)
		}

		if !info.IsDir() {
			add(target, abs)
			continue
		}

		entries, err := discover.Files(abs, opts)
		if err != nil {
			return nil, fmt.Errorf("discovering files: %w", err)
		}
		for _, e := range entries {
			add(filepath.Join(target, e.Path), filepath.Join(abs, e.Path))
		}
	}
	return files, nil
}

func emptyReport(cfg *config.Config) *model.Report {
	return &model.Report{Style: string(cfg.Style())}
}
