package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	orchestration "github.com/koscakluka/sunday/core"
	"github.com/koscakluka/sunday/core/audio/miniaudio"
	"github.com/koscakluka/sunday/core/audio/portaudio"
	"github.com/koscakluka/sunday/core/backend"
	"github.com/koscakluka/sunday/core/speechtotext"
	"github.com/koscakluka/sunday/core/speechtotext/deepgram"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const (
	defaultBaseURL    = "http://localhost:5000"
	defaultBufferSize = 1024
)

var logger = otelslog.NewLogger("github.com/koscakluka/sunday/cmd/sunday")

var (
	baseURL        string
	audioBackend   string
	bufferSize     int
	language       string
	noSpeechAfter  time.Duration
	deepgramModel  string
	logFile        string
	requestTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "sunday",
	Short: "Push-to-talk voice client for the Sunday assistant",
	Long: `sunday is a terminal client for the Sunday voice assistant.

Press tab to start talking and tab again to stop. Each recognized
utterance is sent to the backend's /chat endpoint and the reply is
spoken through /tts. Starting to talk cuts off a reply that is still
playing.

Keys:
  tab      toggle push-to-talk
  enter    send the typed message
  esc      stop the reply that is playing
  ctrl+l   clear the conversation history
  ctrl+c   quit`,
	SilenceUsage: true,
	RunE:         run,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(loadDotEnv)

	flags := rootCmd.Flags()
	flags.StringVar(&baseURL, "base-url", envOr("SUNDAY_BASE_URL", defaultBaseURL), "backend base URL")
	flags.StringVar(&audioBackend, "audio", "miniaudio", "audio backend: miniaudio, portaudio or none")
	flags.IntVar(&bufferSize, "buffer-size", defaultBufferSize, "portaudio frames per buffer")
	flags.StringVar(&language, "language", "en-US", "speech recognition language")
	flags.DurationVar(&noSpeechAfter, "no-speech-timeout", speechtotext.DefaultNoSpeechTimeout, "end a recognition attempt after this long without speech")
	flags.StringVar(&deepgramModel, "model", "nova-3", "deepgram model")
	flags.StringVar(&logFile, "log-file", "", "write structured logs to this file instead of discarding them")
	flags.DurationVar(&requestTimeout, "request-timeout", 30*time.Second, "timeout for backend requests")
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// audioDevice is a microphone and speaker pair.
type audioDevice interface {
	deepgram.AudioSource
	orchestration.AudioPlayer
	Close()
}

func openAudioDevice(name string) (audioDevice, error) {
	switch name {
	case "miniaudio":
		return miniaudio.NewClient()
	case "portaudio":
		return portaudio.NewClient(bufferSize)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", name)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if logFile != "" {
		shutdown, err := setupLogging(logFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(); err != nil {
				log.Printf("Failed to flush logs: %v", err)
			}
		}()
	} else {
		log.SetOutput(io.Discard)
	}

	client, err := backend.NewClient(baseURL, backend.WithRequestTimeout(requestTimeout))
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	device, err := openAudioDevice(audioBackend)
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithBackend(client),
		orchestration.WithTranscriptionOptions(
			speechtotext.WithLanguage(language),
			speechtotext.WithNoSpeechTimeout(noSpeechAfter),
		),
	}
	if device != nil {
		defer device.Close()
		opts = append(opts, orchestration.WithAudioPlayer(device))

		recognizer, err := deepgram.NewRecognizer(device, deepgram.WithModel(deepgramModel))
		if err != nil {
			logger.Warn("speech recognition disabled", "error", err)
		} else {
			defer recognizer.Close()
			opts = append(opts, orchestration.WithSpeechRecognizer(recognizer))
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	orchestrator := orchestration.NewOrchestrator(opts...)
	defer orchestrator.Close()

	ui := newModel(orchestrator, client)
	program := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx))

	// Callbacks block in Send until the program runs, so the orchestrator
	// has to start alongside it.
	go orchestrator.Orchestrate(ctx,
		orchestration.WithMessageCallback(func(message orchestration.Message) {
			program.Send(messageMsg(message))
		}),
		orchestration.WithStatusCallback(func(status orchestration.Status) {
			program.Send(statusMsg(status))
		}),
		orchestration.WithCaptureUnavailableCallback(func(reason string) {
			program.Send(captureUnavailableMsg(reason))
		}),
	)
	logger.Info("client ready", "base_url", client.BaseURL(), "audio", audioBackend)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal ui failed: %w", err)
	}
	return nil
}
