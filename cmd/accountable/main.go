// Accountable is a personal productivity assistant.
//
// It keeps a user's tasks, goals, subgoals and habits, lets friends see
// each other's progress and exchange messages, and answers free-form
// chat by first trying a fixed catalog of command rules and falling back
// to a completion provider. Configuration is loaded from a single YAML
// file discovered automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	accountable serve             Start the API server
//	accountable init [dir]        Write an example config.yaml into dir
//	accountable ask <utterance>   Send one utterance to the assistant
//	accountable mcp               Serve MCP tools over stdio
//	accountable version           Print version and build information
//	accountable -o json version   Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nugget/accountable/internal/api"
	"github.com/nugget/accountable/internal/assistant"
	"github.com/nugget/accountable/internal/buildinfo"
	"github.com/nugget/accountable/internal/config"
	"github.com/nugget/accountable/internal/llm"
	"github.com/nugget/accountable/internal/mcptools"
	"github.com/nugget/accountable/internal/notify"
	"github.com/nugget/accountable/internal/opstate"
	"github.com/nugget/accountable/internal/speech"
	"github.com/nugget/accountable/internal/store"

	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver (cgo)
	_ "modernc.org/sqlite"          // "sqlite" driver (pure Go)
)

// main constructs the OS-level environment and delegates to [run] so
// that os.Exit, os.Stdout and os.Args stay out of application logic.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		stop()
		os.Exit(1)
	}
}

// run is the real entry point. Arguments are parsed by hand so that run
// can be called concurrently from tests without flag package globals.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: accountable ask <utterance>")
		}
		return runAsk(ctx, stdout, stderr, configPath, cmdArgs)
	case "mcp":
		// stdout carries the protocol; logs must stay on stderr.
		return runMCP(ctx, stderr, configPath)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Accountable - personal productivity assistant")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: accountable [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve        Start the API server")
	fmt.Fprintln(w, "  init [dir]   Write an example config.yaml (default: .)")
	fmt.Fprintln(w, "  ask          Send one utterance to the assistant")
	fmt.Fprintln(w, "  mcp          Serve MCP tools over stdio")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/accountable/config.yaml, /etc/accountable/config.yaml")
	return nil
}

// app holds the components shared by every subcommand that talks to the
// assistant.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	assistant *assistant.Assistant
	publisher *notify.Publisher
}

func (a *app) Close() error {
	return a.store.Close()
}

// setup loads config, opens the database and builds the assistant.
// Logs go to w at the configured level and format.
func setup(w io.Writer, configPath string) (*app, error) {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// ParseLogLevel was already checked by config.Validate.
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := config.NewLogger(w, level, cfg.LogFormat)
	logger.Debug("config loaded", "path", cfgPath)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := cfg.Database.Path(cfg.DataDir)
	st, err := store.Open(cfg.Database.Driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dbPath, err)
	}
	logger.Info("store opened", "path", dbPath, "driver", cfg.Database.Driver)

	sessions, err := opstate.NewStore(st.DB())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open operational state: %w", err)
	}

	var completer llm.Completer
	if cfg.Completion.Configured() {
		completer = llm.NewOpenAIClient(cfg.Completion, logger)
		logger.Info("completion provider configured", "model", cfg.Completion.Model, "base_url", cfg.Completion.BaseURL)
	} else {
		logger.Warn("no completion api_key configured, conversational replies are degraded")
	}

	var notifier notify.Notifier = notify.Nop{}
	var publisher *notify.Publisher
	if cfg.MQTT.Configured() {
		instanceID, err := notify.LoadOrCreateInstanceID(cfg.DataDir)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("mqtt instance id: %w", err)
		}
		publisher = notify.New(cfg.MQTT, instanceID, logger.With("component", "mqtt"))
		notifier = publisher
	}

	asst := assistant.New(logger.With("component", "assistant"), st, sessions, completer, notifier)

	return &app{cfg: cfg, logger: logger, store: st, assistant: asst, publisher: publisher}, nil
}

// runServe starts the API server and, when configured, the MQTT
// publisher, and blocks until ctx is cancelled or one of them fails.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	a, err := setup(stdout, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger
	logger.Info("starting Accountable", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)

	server := api.NewServer(a.cfg.Listen.Address, a.cfg.Listen.Port, a.store, a.assistant, logger.With("component", "api"))
	server.SetDefaultUser(a.cfg.DefaultUserID)
	server.SetAllowedOrigins(a.cfg.Listen.AllowedOrigins)

	var transcriber speech.Transcriber
	var synthesizer speech.Synthesizer
	if a.cfg.Speech.Deepgram.Configured() {
		transcriber = speech.NewDeepgram(a.cfg.Speech.Deepgram, logger.With("component", "deepgram"))
	}
	if a.cfg.Speech.Murf.Configured() {
		synthesizer = speech.NewMurf(a.cfg.Speech.Murf, logger.With("component", "murf"))
	}
	server.SetSpeech(transcriber, synthesizer)
	logger.Info("speech providers", "stt", transcriber != nil, "tts", synthesizer != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	if a.publisher != nil {
		g.Go(func() error {
			err := a.publisher.Start(gctx)
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := a.publisher.Stop(stopCtx); serr != nil {
				logger.Debug("mqtt disconnect failed", "error", serr)
			}
			return err
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("shutdown complete")
	return err
}

// runAsk sends a single utterance through the assistant and prints the
// reply. The utterance is recorded like any other chat turn.
func runAsk(ctx context.Context, stdout io.Writer, stderr io.Writer, configPath string, args []string) error {
	a, err := setup(stderr, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	reply, err := a.assistant.ClassifyAndRespond(ctx, a.cfg.DefaultUserID, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	fmt.Fprintln(stdout, reply)
	return nil
}

// runMCP serves the MCP tool set over stdio for the default user.
func runMCP(ctx context.Context, stderr io.Writer, configPath string) error {
	a, err := setup(stderr, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.publisher != nil {
		go func() {
			if err := a.publisher.Start(ctx); err != nil {
				a.logger.Warn("mqtt publisher stopped", "error", err)
			}
		}()
	}

	tools := mcptools.New(a.assistant, a.store, a.cfg.DefaultUserID, a.logger)
	a.logger.Info("serving MCP over stdio", "user", a.cfg.DefaultUserID)
	return mcptools.ServeStdio(mcptools.NewServer(tools))
}

// loadConfig locates and parses the YAML configuration file.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}
