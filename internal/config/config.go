// Package config loads runtime settings from defaults, a .env file, the
// environment and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ayusman/facemesh/internal/display"
	"github.com/ayusman/facemesh/internal/heuristic"
	"github.com/ayusman/facemesh/internal/render"
	"github.com/ayusman/facemesh/internal/selector"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FACEMESH_"

// Config holds every runtime setting.
type Config struct {
	// Source selection
	VideoPath string `validate:"required"`
	Source    string `validate:"omitempty,oneof=camera file 1 2"`

	// Heuristics and rendering
	EyeClosedThreshold float64 `validate:"gt=0"`
	SmileThreshold     float64 `validate:"gt=0"`
	BlendAlpha         float64 `validate:"gte=0,lte=1"`
	AnnotateIndices    bool
	WindowTitle        string `validate:"required"`
	Headless           bool

	// Detector
	MaxFaces               int     `validate:"gte=1,lte=10"`
	MinDetectionConfidence float64 `validate:"gte=0,lte=1"`
	MinTrackingConfidence  float64 `validate:"gte=0,lte=1"`
	DetectorScript         string
	Python                 string

	// Recording, alerts and serving
	DBPath      string
	HTTPAddr    string `validate:"omitempty,hostname_port"`
	WebDir      string
	MQTTBroker  string `validate:"omitempty,url"`
	MQTTTopic   string `validate:"required_with=MQTTBroker"`
	HookDir     string
	HookTimeout time.Duration `validate:"gt=0"`
	AlertRate   float64       `validate:"gt=0"`
	AlertBurst  int           `validate:"gte=1"`
	SinkTimeout time.Duration `validate:"gt=0"`

	// Logging
	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		VideoPath:              selector.DefaultVideoPath,
		EyeClosedThreshold:     heuristic.DefaultEyeClosedThreshold,
		SmileThreshold:         heuristic.DefaultSmileThreshold,
		BlendAlpha:             render.DefaultAlpha,
		AnnotateIndices:        true,
		WindowTitle:            display.DefaultTitle,
		MaxFaces:               4,
		MinDetectionConfidence: 0.5,
		MinTrackingConfidence:  0.5,
		MQTTTopic:              "facemesh/alerts",
		HookTimeout:            5 * time.Second,
		AlertRate:              2,
		AlertBurst:             4,
		SinkTimeout:            2 * time.Second,
		LogLevel:               "info",
	}
}

// Thresholds returns the heuristic thresholds.
func (c Config) Thresholds() heuristic.Thresholds {
	return heuristic.Thresholds{
		EyeClosed: c.EyeClosedThreshold,
		Smile:     c.SmileThreshold,
	}
}

// Load builds the configuration. envFile may be empty to skip the .env
// file; a missing file is not an error.
func Load(args []string, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	fset := flag.NewFlagSet("facemesh", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	bindFlags(fset, &cfg)
	if err := fset.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Usage writes the flag documentation to w.
func Usage(w io.Writer) {
	cfg := Default()
	fset := flag.NewFlagSet("facemesh", flag.ContinueOnError)
	bindFlags(fset, &cfg)
	fset.SetOutput(w)
	fset.PrintDefaults()
}

var validate = validator.New()

// Validate checks field constraints.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func bindFlags(fset *flag.FlagSet, cfg *Config) {
	fset.StringVar(&cfg.VideoPath, "video", cfg.VideoPath, "Predefined video file offered by the source menu")
	fset.StringVar(&cfg.Source, "source", cfg.Source, "Skip the menu: camera or file")
	fset.Float64Var(&cfg.EyeClosedThreshold, "eye-threshold", cfg.EyeClosedThreshold, "Eyelid gap below which eyes count as closed")
	fset.Float64Var(&cfg.SmileThreshold, "smile-threshold", cfg.SmileThreshold, "Mouth width above which a face counts as smiling")
	fset.Float64Var(&cfg.BlendAlpha, "alpha", cfg.BlendAlpha, "Weight of the annotated overlay")
	fset.BoolVar(&cfg.AnnotateIndices, "indices", cfg.AnnotateIndices, "Draw landmark indices")
	fset.StringVar(&cfg.WindowTitle, "title", cfg.WindowTitle, "Preview window title")
	fset.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run without a preview window")
	fset.IntVar(&cfg.MaxFaces, "max-faces", cfg.MaxFaces, "Maximum number of faces to detect")
	fset.Float64Var(&cfg.MinDetectionConfidence, "min-detection", cfg.MinDetectionConfidence, "Minimum face detection confidence")
	fset.Float64Var(&cfg.MinTrackingConfidence, "min-tracking", cfg.MinTrackingConfidence, "Minimum landmark tracking confidence")
	fset.StringVar(&cfg.DetectorScript, "detector-script", cfg.DetectorScript, "Path to facemesh_service.py")
	fset.StringVar(&cfg.Python, "python", cfg.Python, "Python interpreter for the detector service")
	fset.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite file for session recording (empty disables)")
	fset.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP listen address (empty disables)")
	fset.StringVar(&cfg.WebDir, "web", cfg.WebDir, "Static files served next to the API (empty searches ./web)")
	fset.StringVar(&cfg.MQTTBroker, "mqtt-broker", cfg.MQTTBroker, "MQTT broker URL for alerts (empty disables)")
	fset.StringVar(&cfg.MQTTTopic, "mqtt-topic", cfg.MQTTTopic, "MQTT topic for alerts")
	fset.StringVar(&cfg.HookDir, "hooks", cfg.HookDir, "Directory of alert hook plugins (empty disables)")
	fset.DurationVar(&cfg.HookTimeout, "hook-timeout", cfg.HookTimeout, "Timeout for a single hook execution")
	fset.Float64Var(&cfg.AlertRate, "alert-rate", cfg.AlertRate, "Alerts per second delivered to sinks")
	fset.IntVar(&cfg.AlertBurst, "alert-burst", cfg.AlertBurst, "Alert burst size")
	fset.DurationVar(&cfg.SinkTimeout, "sink-timeout", cfg.SinkTimeout, "Timeout for delivering one alert to one sink")
	fset.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fset.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Rotated log file (empty disables)")
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	float := func(key string, dst *float64) {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("VIDEO_PATH", &cfg.VideoPath)
	str("SOURCE", &cfg.Source)
	float("EYE_THRESHOLD", &cfg.EyeClosedThreshold)
	float("SMILE_THRESHOLD", &cfg.SmileThreshold)
	float("ALPHA", &cfg.BlendAlpha)
	boolean("INDICES", &cfg.AnnotateIndices)
	str("WINDOW_TITLE", &cfg.WindowTitle)
	boolean("HEADLESS", &cfg.Headless)
	integer("MAX_FACES", &cfg.MaxFaces)
	float("MIN_DETECTION", &cfg.MinDetectionConfidence)
	float("MIN_TRACKING", &cfg.MinTrackingConfidence)
	str("DETECTOR_SCRIPT", &cfg.DetectorScript)
	str("PYTHON", &cfg.Python)
	str("DB", &cfg.DBPath)
	str("HTTP", &cfg.HTTPAddr)
	str("WEB_DIR", &cfg.WebDir)
	str("MQTT_BROKER", &cfg.MQTTBroker)
	str("MQTT_TOPIC", &cfg.MQTTTopic)
	str("HOOKS", &cfg.HookDir)
	duration("HOOK_TIMEOUT", &cfg.HookTimeout)
	float("ALERT_RATE", &cfg.AlertRate)
	integer("ALERT_BURST", &cfg.AlertBurst)
	duration("SINK_TIMEOUT", &cfg.SinkTimeout)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FILE", &cfg.LogFile)

	return errors.Join(errs...)
}
