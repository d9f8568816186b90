package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/doridoridoriand/inetwatch/internal/cli"
	"github.com/doridoridoriand/inetwatch/internal/config"
	"github.com/doridoridoriand/inetwatch/internal/fault"
	"github.com/doridoridoriand/inetwatch/internal/log"
	"github.com/doridoridoriand/inetwatch/internal/metrics"
	"github.com/doridoridoriand/inetwatch/internal/monitor"
	"github.com/doridoridoriand/inetwatch/internal/outage"
	"github.com/doridoridoriand/inetwatch/internal/ping"
	"github.com/doridoridoriand/inetwatch/internal/scheduler"
	"github.com/doridoridoriand/inetwatch/internal/state"
	"github.com/doridoridoriand/inetwatch/internal/ui"
)

const version = "0.1.0"

type options struct {
	configPath  string
	showVersion bool
	overrides   config.CLIOverrides
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "inetwatch version %s\n", version)
		return 0
	}

	cfg, err := config.Load(afero.NewOsFs(), opts.configPath, opts.overrides)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	console := stderr
	if cfg.UI {
		// The terminal view owns the screen.
		console = io.Discard
	}
	logger, err := log.New(log.Options{Level: log.ParseLevel(cfg.LogLevel), Console: console, DiagPath: cfg.DiagLog})
	if err != nil {
		fmt.Fprintf(stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	logConfigSource(logger, opts.configPath)

	if err := monitorLoop(ctx, *cfg, logger, stdout); err != nil {
		logger.LogError("startup", err, nil)
		fmt.Fprintf(stderr, "inetwatch: %v\n", err)
		if fault.IsFatal(err) {
			return 1
		}
	}
	return 0
}

func logConfigSource(logger *log.Logger, path string) {
	if path == "" {
		logger.Info("no config file given, using defaults", nil)
		return
	}
	logger.LogConfigLoad(true, path, nil)
}

func parseFlags(args []string, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("inetwatch", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		configPath    string
		showVersion   bool
		target        = cli.NewOptionalString()
		interval      = cli.NewOptionalDuration()
		timeout       = cli.NewOptionalDuration()
		addressIndex  = cli.NewOptionalInt()
		logFile       = cli.NewOptionalString()
		logLevel      = cli.NewOptionalString()
		diagLog       = cli.NewOptionalString()
		metricsListen = cli.NewOptionalString()
		enableUI      = cli.NewOptionalBool()
	)

	fs.StringVar(&configPath, "config", "", "optional YAML config file")
	cli.Var(fs, target, "host to probe, host[:port] (override config)", "target")
	cli.Var(fs, interval, "probe interval (override config)", "interval", "i")
	cli.Var(fs, timeout, "probe timeout (override config)", "timeout", "t")
	cli.Var(fs, addressIndex, "index of the resolved address to probe (override config)", "address-index")
	cli.Var(fs, logFile, "outage log path (override config)", "log-file")
	cli.Var(fs, logLevel, "console log level: debug|info|warn|error", "log-level")
	cli.Var(fs, diagLog, "rotated JSON diagnostic log path", "diag-log")
	cli.Var(fs, metricsListen, "metrics listen address (e.g. :9100)", "metrics-listen")
	cli.Var(fs, enableUI, "show the terminal status view", "ui")
	fs.BoolVar(&showVersion, "version", false, "show version")
	fs.BoolVar(&showVersion, "v", false, "show version")
	fs.Usage = cli.Usage(fs, "inetwatch")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(output, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return options{
		configPath:  configPath,
		showVersion: showVersion,
		overrides: config.CLIOverrides{
			Target:        target.Ptr(),
			Interval:      interval.Ptr(),
			Timeout:       timeout.Ptr(),
			AddressIndex:  addressIndex.Ptr(),
			LogFile:       logFile.Ptr(),
			LogLevel:      logLevel.Ptr(),
			DiagLog:       diagLog.Ptr(),
			MetricsListen: metricsListen.Ptr(),
			UI:            enableUI.Ptr(),
		},
	}, nil
}

// fallbackPinger is a pinger that may be missing on the host.
type fallbackPinger interface {
	ping.Pinger
	Available() bool
}

// selectPinger returns the raw ICMP pinger when the preflight succeeds. On a
// permission failure it degrades to the system ping binary when present.
func selectPinger(preflight func() error, external fallbackPinger, logger *log.Logger) (ping.Pinger, error) {
	primary := ping.NewICMPPinger()
	err := preflight()
	if err == nil {
		return ping.NewFallbackPinger(primary, external, func(err error) {
			logger.Warn("raw socket lost privilege, using system ping", map[string]interface{}{"error": err.Error()})
		}), nil
	}
	if !ping.IsPermissionError(err) {
		return nil, fault.StartupFatal("open raw icmp socket", err)
	}
	if !external.Available() {
		return nil, fault.StartupFatal("open raw icmp socket", fmt.Errorf("%w; no ping binary found", err))
	}
	logger.Warn("raw icmp socket not permitted, using system ping", map[string]interface{}{"error": err.Error()})
	return external, nil
}

func monitorLoop(ctx context.Context, cfg config.Config, logger *log.Logger, stdout io.Writer) error {
	pinger, err := selectPinger(ping.CheckRawSocket, ping.NewExternalPinger(), logger)
	if err != nil {
		return err
	}

	sink, err := outage.Open(afero.NewOsFs(), cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.LogError("outage-log", err, nil)
		}
	}()

	store := state.NewStore(cfg.Target)
	m, err := monitor.New(sink,
		monitor.WithLogger(logger),
		monitor.WithStore(store),
		monitor.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return err
	}
	prober := ping.NewProber(pinger, ping.WithAddressIndex(cfg.AddressIndex))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.MetricsListen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsListen, store); err != nil && !errors.Is(err, context.Canceled) {
				logger.LogError("metrics", err, map[string]interface{}{"listen": cfg.MetricsListen})
			}
		}()
	}
	if cfg.UI {
		go func() {
			if err := ui.New(cfg, store).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.LogError("ui", err, nil)
			}
			cancel()
		}()
	}

	fmt.Fprintln(stdout, "Start monitoring internet connectivity...")
	logger.Info("monitoring started", map[string]interface{}{
		"target":   cfg.Target,
		"interval": cfg.Interval.String(),
		"timeout":  cfg.Timeout.String(),
		"log_file": cfg.LogFile,
	})

	sched := scheduler.New(cfg.Interval, func(ctx context.Context) {
		m.Tick(ctx, prober, cfg.Target)
	})
	err = sched.Run(ctx)
	logger.Info("monitoring stopped", map[string]interface{}{"ticks": sched.Ticks(), "state": m.State().String()})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
