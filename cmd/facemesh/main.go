package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/facemesh/internal/alert"
	"github.com/ayusman/facemesh/internal/app"
	"github.com/ayusman/facemesh/internal/capture"
	"github.com/ayusman/facemesh/internal/config"
	"github.com/ayusman/facemesh/internal/detector"
	"github.com/ayusman/facemesh/internal/display"
	"github.com/ayusman/facemesh/internal/heuristic"
	"github.com/ayusman/facemesh/internal/logging"
	"github.com/ayusman/facemesh/internal/plugin"
	"github.com/ayusman/facemesh/internal/render"
	"github.com/ayusman/facemesh/internal/selector"
	"github.com/ayusman/facemesh/internal/server"
	"github.com/ayusman/facemesh/internal/store"
)

// highgui windows must be driven from the main thread
func init() {
	runtime.LockOSThread()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run returns the process exit status. Nothing is opened before the input
// source is chosen.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, "FaceMesh - Eye and Smile Heuristics")

	cfg, err := config.Load(args, ".env")
	if err != nil {
		fmt.Fprintln(stderr, err)
		config.Usage(stderr)
		return 1
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Output: stderr})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	target, err := chooseTarget(cfg, stdin, stdout)
	if err != nil {
		if errors.Is(err, selector.ErrInvalidChoice) {
			log.WithError(err).Error("invalid input source")
		} else {
			log.WithError(err).Error("Failed to read source choice")
		}
		return 1
	}

	det, err := detector.NewMediaPipeDetector(detector.Config{
		MaxFaces:        cfg.MaxFaces,
		MinConfidence:   cfg.MinDetectionConfidence,
		MinTrackingConf: cfg.MinTrackingConfidence,
		ScriptPath:      cfg.DetectorScript,
		Python:          cfg.Python,
	})
	if err != nil {
		log.WithError(err).Error("Failed to initialize detector")
		return 1
	}
	defer det.Close()

	var st *store.Store
	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			log.WithError(err).Error("Failed to create data directory")
			return 1
		}
		st, err = store.New(cfg.DBPath)
		if err != nil {
			log.WithError(err).Error("Failed to initialize store")
			return 1
		}
		defer st.Close()
	}

	var sessions *store.SessionRepository
	if st != nil {
		sessions = st.Sessions()
	}
	recorder, err := app.NewRecorder(sessions, target.String(), cfg.Thresholds(), log)
	if err != nil {
		log.WithError(err).Error("Failed to start session")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dispatcher := alert.NewDispatcher(alert.DispatcherConfig{
		Rate:        cfg.AlertRate,
		Burst:       cfg.AlertBurst,
		SinkTimeout: cfg.SinkTimeout,
	}, log)
	if st != nil {
		dispatcher.AddRecorder(alert.NewStoreSink(st.Events()))
	}
	if cfg.MQTTBroker != "" {
		sink, err := alert.NewMQTTSink(alert.MQTTConfig{Broker: cfg.MQTTBroker, Topic: cfg.MQTTTopic}, log)
		if err != nil {
			log.WithError(err).Warn("MQTT alerts disabled")
		} else {
			defer sink.Close()
			dispatcher.AddNotifier(sink)
		}
	}
	if cfg.HookDir != "" {
		manager := plugin.NewManager(cfg.HookDir)
		if err := manager.Discover(); err != nil {
			log.WithError(err).Warn("hook discovery failed")
		}
		if hooks := manager.List(); len(hooks) > 0 {
			log.WithField("hooks", len(hooks)).Info("alert hooks loaded")
			dispatcher.AddNotifier(alert.NewHookSink(manager, plugin.NewExecutor(cfg.HookTimeout)))
		}
	}

	observers := []app.Observer{recorder}
	if dispatcher.Sinks() > 0 {
		observers = append(observers, app.NewAlerts(recorder.SessionID(), dispatcher))
	}

	serverDone := make(chan struct{})
	if cfg.HTTPAddr != "" {
		hub := server.NewFrameHub()
		observers = append(observers, hub)

		webDir := cfg.WebDir
		if webDir == "" {
			webDir = findWebDir()
		}
		srv := server.New(server.Config{StaticDir: webDir, Store: st, Hub: hub, Log: log})
		go func() {
			defer close(serverDone)
			if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
				log.WithError(err).Error("http server stopped")
			}
		}()
	} else {
		close(serverDone)
	}

	var disp display.Display
	if !cfg.Headless {
		disp = display.NewWindow(cfg.WindowTitle)
	}

	analyzer, err := app.New(app.Config{
		Source:    capture.NewSource(target),
		Detector:  det,
		Evaluator: heuristic.NewEvaluator(cfg.Thresholds()),
		Renderer:  render.New(render.Options{Alpha: cfg.BlendAlpha, AnnotateIndices: cfg.AnnotateIndices}),
		Display:   disp,
		Activity:  capture.NewActivityMeter(),
		Observers: observers,
		Log:       log,
	})
	if err != nil {
		log.WithError(err).Error("Failed to build analyzer")
		return 1
	}

	runErr := analyzer.Run(ctx)

	cancel()
	<-serverDone

	if err := recorder.Finish(); err != nil {
		log.WithError(err).Warn("session not saved")
	}
	summarize(log, recorder.Tally(), dispatcher.Stats(), recorder.SessionID())

	if runErr != nil {
		log.WithError(runErr).Error("analysis failed")
		return 1
	}
	return 0
}

func chooseTarget(cfg config.Config, in io.Reader, out io.Writer) (capture.Target, error) {
	if cfg.Source != "" {
		return selector.FromName(cfg.Source, cfg.VideoPath)
	}
	return selector.Choose(in, out, cfg.VideoPath)
}

func summarize(log logrus.FieldLogger, tally store.Tally, stats alert.Stats, session string) {
	entry := log.WithFields(logrus.Fields{
		"frames":      humanize.Comma(tally.Frames),
		"faces":       humanize.Comma(tally.Faces),
		"eyes_closed": humanize.Comma(tally.EyesClosed),
		"smiles":      humanize.Comma(tally.Smiles),
		"dangers":     humanize.Comma(tally.Dangers),
	})
	if session != "" {
		entry = entry.WithField("session", session)
	}
	if stats != (alert.Stats{}) {
		entry = entry.WithFields(logrus.Fields{
			"alerts_delivered": humanize.Comma(stats.Delivered),
			"alerts_recorded":  humanize.Comma(stats.Recorded),
			"alerts_dropped":   humanize.Comma(stats.Dropped),
			"alerts_failed":    humanize.Comma(stats.Failed),
		})
	}
	entry.Info("session summary")
}

// findWebDir returns the first web directory next to the working directory
// or under ~/.facemesh, or "" when there is none.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".facemesh", "web")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}
