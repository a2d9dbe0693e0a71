// Command ema-polyglot runs a multilingual voice session at the console.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-polyglot/core"
	"github.com/koscakluka/ema-polyglot/core/audio/miniaudio"
	"github.com/koscakluka/ema-polyglot/core/audio/portaudio"
	"github.com/koscakluka/ema-polyglot/core/config"
	"github.com/koscakluka/ema-polyglot/core/events"
	"github.com/koscakluka/ema-polyglot/core/transport/console"
)

const (
	logFile                  = "ema-polyglot.log"
	portaudioFramesPerBuffer = 1024
)

type options struct {
	configPath   string
	printSchema  bool
	logLevel     string
	audioBackend string
	noTUI        bool
	textReplies  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a JSON session configuration")
	flag.BoolVar(&opts.printSchema, "schema", false, "print the configuration JSON schema and exit")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flag.StringVar(&opts.audioBackend, "audio", "miniaudio", "audio backend: miniaudio or portaudio")
	flag.BoolVar(&opts.noTUI, "no-tui", false, "log to stderr instead of running the terminal UI")
	flag.BoolVar(&opts.textReplies, "tts", false, "have replies spoken by the synthesis engine in the session language")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.printSchema {
		schema, err := json.MarshalIndent(config.Schema(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		fmt.Println(string(schema))
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.textReplies {
		if cfg.Synthesis == nil {
			cfg.Synthesis = config.DefaultSynthesis()
		}
		cfg.Generation.Replies = config.ReplyText
		cfg.ApplyEnv()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
	}

	var logOutput io.Writer = os.Stderr
	if !opts.noTUI {
		f, err := tea.LogToFile(logFile, "")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOutput = f
	}
	log := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	log.Debug("loaded configuration", "config", cfg.Redacted())

	device, err := openDevice(opts.audioBackend)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionOpts := []orchestration.OrchestratorOption{
		orchestration.WithConfig(cfg),
		orchestration.WithTransport(console.New(device)),
		orchestration.WithNoiseCanceller(console.NewNoiseGate()),
		orchestration.WithLogger(log),
	}

	if opts.noTUI {
		sessionOpts = append(sessionOpts,
			orchestration.WithTranscriptionCallback(func(transcript, language string) {
				fmt.Printf("you [%s]: %s\n", language, transcript)
			}),
			orchestration.WithLanguageChangedCallback(func(from, to string) {
				fmt.Printf("language: %s -> %s\n", from, to)
			}),
			orchestration.WithEventCallback(func(event events.Event) {
				if final, ok := event.(events.AssistantResponseFinal); ok && final.Text != "" {
					fmt.Printf("assistant: %s\n", final.Text)
				}
			}),
		)
		return runSession(ctx, orchestration.NewOrchestrator(sessionOpts...))
	}

	program := tea.NewProgram(newModel(cfg.DefaultLanguage), tea.WithContext(ctx))
	sessionOpts = append(sessionOpts, orchestration.WithEventCallback(func(event events.Event) {
		program.Send(sessionEventMsg{event: event})
	}))
	session := orchestration.NewOrchestrator(sessionOpts...)

	go func() {
		program.Send(sessionEndedMsg{err: runSession(ctx, session)})
	}()

	final, runErr := program.Run()
	stop()
	if err := session.Stop(context.Background()); err != nil {
		log.Warn("failed to stop session", "error", err)
	}
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal UI failed: %w", runErr)
	}
	if m, ok := final.(*model); ok {
		return m.err
	}
	return nil
}

func runSession(ctx context.Context, session *orchestration.Orchestrator) error {
	if err := session.Start(ctx, orchestration.Room{Name: "console"}); err != nil {
		return err
	}
	return session.Wait(ctx)
}

func openDevice(backend string) (console.AudioDevice, error) {
	switch backend {
	case "miniaudio":
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, err
		}
		return client, nil
	case "portaudio":
		client, err := portaudio.NewClient(portaudioFramesPerBuffer)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", backend)
}
