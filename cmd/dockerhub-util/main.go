package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/lodthe/dockerhub-util/internal/latestver"
	"github.com/lodthe/dockerhub-util/internal/tagreport"
	"github.com/lodthe/dockerhub-util/pkg/dockerhub"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const programVersion = "1.0.1"

// Exit codes promised to callers, the container healthcheck among them.
const (
	exitOK          = 0
	exitGeneric     = 1
	exitNotFound    = 2
	exitNetwork     = 3
	exitRateLimited = 4
)

type options struct {
	format         string
	filter         string
	timeout        time.Duration
	configPath     string
	latestVersions bool
	showVersion    bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dockerhub-util", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	var opts options
	fs.StringVar(&opts.format, "format", string(tagreport.FormatText), "Output format: text or json")
	fs.StringVar(&opts.filter, "filter", "", "Keep only tags whose name contains the given substring")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout, e.g. 10s (overrides the config)")
	fs.StringVar(&opts.configPath, "config", "", "Path to the YAML config file")
	fs.BoolVar(&opts.latestVersions, "latest-versions", false, "Print the latest version of every configured repository as export lines")
	fs.BoolVar(&opts.showVersion, "version", false, "Print program version and exit")

	// Help mode answers without touching the network, so the container
	// healthcheck can probe liveness cheaply.
	if len(args) == 0 {
		printUsage(stdout, fs)
		return exitOK
	}

	positionals, err := parseArgs(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		printUsage(stdout, fs)
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "dockerhub-util: %s\n", err)
		fmt.Fprintln(stderr, "Use --help for usage.")
		return exitGeneric
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "dockerhub-util version %s\n", programVersion)
		return exitOK
	}

	config, err := LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "dockerhub-util: config cannot be loaded: %s\n", err)
		return exitGeneric
	}

	logger, err := newLogger(config, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "dockerhub-util: %s\n", err)
		return exitGeneric
	}

	timeout := config.RequestTimeout
	if opts.timeout > 0 {
		timeout = opts.timeout
	}

	cli := dockerhub.NewClient(dockerhub.Config{
		APIURL:     config.Endpoint,
		MaxRPS:     config.MaxRPS,
		Timeout:    timeout,
		RetryDelay: config.RetryDelay,
	})

	startedAt := time.Now()
	logger.Debug().Str("version", programVersion).Msg("enter")

	var code int
	if opts.latestVersions {
		code = runLatestVersions(ctx, logger, cli, config.LatestVersions, stdout, stderr)
	} else {
		code = runTagReport(ctx, logger, cli, positionals, opts, stdout, stderr)
	}

	logger.Debug().Int("exit_code", code).Dur("elapsed", time.Since(startedAt)).Msg("exit")

	return code
}

// parseArgs parses flags with fs, collecting positional arguments.
// Flags may precede or follow a positional ("dockerhub-util acme/service
// --format=json" works), which stdlib flag does not do on its own: it
// stops at the first non-flag token, so the remainder is re-parsed after
// each positional is consumed.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positionals []string

	for {
		err := fs.Parse(args)
		if err != nil {
			return nil, err
		}

		rest := fs.Args()
		if len(rest) == 0 {
			return positionals, nil
		}

		positionals = append(positionals, rest[0])
		args = rest[1:]
	}
}

// runTagReport fetches all tags of a single repository and renders them.
func runTagReport(ctx context.Context, logger zerolog.Logger, cli *dockerhub.Client, args []string, opts options, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "dockerhub-util: exactly one <namespace>/<repository> argument is expected")
		fmt.Fprintln(stderr, "Use --help for usage.")
		return exitGeneric
	}

	format, err := tagreport.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintf(stderr, "dockerhub-util: %s\n", err)
		return exitGeneric
	}

	ref, err := dockerhub.ParseRepositoryRef(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "dockerhub-util: %s\n", err)
		return exitGeneric
	}

	tags, err := cli.GetTags(ctx, ref)
	if err != nil {
		logger.Error().Err(err).Str("repository", ref.String()).Msg("tag listing failed")
		fmt.Fprintf(stderr, "dockerhub-util: %s: %s\n", ref, err)
		return exitCode(err)
	}

	logger.Debug().Str("repository", ref.String()).Int("tag_count", len(tags)).Msg("tags have been fetched")

	err = tagreport.Write(stdout, format, tagreport.Build(tags, opts.filter))
	if err != nil {
		fmt.Fprintf(stderr, "dockerhub-util: %s\n", err)
		return exitGeneric
	}

	return exitOK
}

// runLatestVersions prints the latest version of every configured
// repository as a sorted list of shell export lines. All repositories
// are resolved before anything is printed, a failed lookup produces
// no partial output.
func runLatestVersions(ctx context.Context, logger zerolog.Logger, cli *dockerhub.Client, entries []LatestVersionEntry, stdout, stderr io.Writer) int {
	lines := make([]string, 0, len(entries))

	for _, entry := range entries {
		version := entry.PinnedVersion
		if version == "" {
			ref, err := dockerhub.ParseRepositoryRef(entry.Repository)
			if err != nil {
				fmt.Fprintf(stderr, "dockerhub-util: %s\n", err)
				return exitGeneric
			}

			tags, err := cli.GetTags(ctx, ref)
			if err != nil {
				logger.Error().Err(err).Str("repository", ref.String()).Msg("tag listing failed")
				fmt.Fprintf(stderr, "dockerhub-util: %s: %s\n", ref, err)
				return exitCode(err)
			}

			names := make([]string, 0, len(tags))
			for _, t := range tags {
				names = append(names, t.Name)
			}

			latest, ok := latestver.Latest(names)
			if !ok {
				fmt.Fprintf(stderr, "dockerhub-util: %s: no version-like tags found\n", ref)
				return exitGeneric
			}

			version = latest
		}

		lines = append(lines, fmt.Sprintf("export %s=%s", entry.EnvVariable, version))
	}

	sort.Strings(lines)

	fmt.Fprintln(stdout, "#!/usr/bin/env bash")
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "# Generated on %s by dockerhub-util version %s\n", time.Now().Format(time.DateOnly), programVersion)
	fmt.Fprintln(stdout)
	for _, line := range lines {
		fmt.Fprintln(stdout, line)
	}

	return exitOK
}

// exitCode maps a client failure to the documented process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, dockerhub.ErrNotFound):
		return exitNotFound
	case errors.Is(err, dockerhub.ErrNetwork):
		return exitNetwork
	case errors.Is(err, dockerhub.ErrRateLimited):
		return exitRateLimited
	default:
		return exitGeneric
	}
}

func newLogger(config *Config, stderr io.Writer) (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	lvl, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		return zerolog.Nop(), errors.Wrap(err, "invalid log level")
	}

	var out io.Writer = stderr
	if config.LogFormat == PrettyLogFormat {
		out = zerolog.ConsoleWriter{Out: stderr}
	}

	logger := zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("invocation_id", uuid.NewString()).
		Logger()

	return logger, nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "dockerhub-util reports tag metadata from the Docker Hub registry.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  dockerhub-util [flags] <namespace>/<repository>")
	fmt.Fprintln(w, "  dockerhub-util --latest-versions [--config=<path>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 success, 2 repository not found, 3 network failure, 4 rate limited, 1 anything else.")
}
