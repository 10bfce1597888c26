// Command rwsetbench compares the admission styles of rwlock by running a
// mixed read and write workload against a syncset.Set under each style.
//
// Every run is checked: writers own disjoint key ranges and log what they do,
// and the final set must equal a sequential replay of those logs.
//
// Usage:
//
//	rwsetbench [-config file.json] [-style all|writer|reader|fair] [-readers n]
//	           [-writers n] [-ops n] [-keys n] [-batch n] [-parallel n] [-seed n] [-v]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "rwsetbench:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	styles, err := cfg.Styles()
	if err != nil {
		return err
	}
	var results []Result
	for _, style := range styles {
		res, err := Bench(ctx, cfg, style, logger)
		if err != nil {
			return err
		}
		logger.Info("run verified", "style", style, "ops/s", int64(res.Throughput()))
		results = append(results, res)
	}
	fmt.Fprintln(stdout, Report(results))
	return nil
}

// parseArgs builds the config from defaults, an optional config file, and
// then the remaining flags, in increasing precedence.
func parseArgs(args []string, stderr io.Writer) (*Config, error) {
	// The config file is loaded before the flags are bound so that flags given
	// on the command line override it.
	path := configPath(args)
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	fs := flag.NewFlagSet("rwsetbench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("config", path, "JSON file holding the config; flags override it")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configPath returns the value of the last -config flag in args.
func configPath(args []string) (path string) {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
		if name == arg {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			path = v
		} else if name == "config" && i+1 < len(args) {
			path = args[i+1]
		}
	}
	return path
}
