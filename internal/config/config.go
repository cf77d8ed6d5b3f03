package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel   string           `mapstructure:"log_level"`
	Phonemizer PhonemizerConfig `mapstructure:"phonemizer"`
	Server     ServerConfig     `mapstructure:"server"`
	TTS        TTSConfig        `mapstructure:"tts"`
}

type PhonemizerConfig struct {
	ESpeakPath     string `mapstructure:"espeak_path"`
	ESpeakDataPath string `mapstructure:"espeak_data_path"`
	DefaultLang    string `mapstructure:"default_lang"`
	Workers        int    `mapstructure:"workers"`
}

type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	Workers         int           `mapstructure:"workers"`
	MaxTextBytes    int           `mapstructure:"max_text_bytes"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsPath     string        `mapstructure:"metrics_path"`
}

type TTSConfig struct {
	EnginePath  string   `mapstructure:"engine_path"`
	EngineArgs  []string `mapstructure:"engine_args"`
	Voice       string   `mapstructure:"voice"`
	Speed       float64  `mapstructure:"speed"`
	Trim        bool     `mapstructure:"trim"`
	MaxPhonemes int      `mapstructure:"max_phonemes"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Phonemizer: PhonemizerConfig{
			ESpeakPath:  "espeak-ng",
			DefaultLang: "a",
			Workers:     4,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         4,
			MaxTextBytes:    8192,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MetricsPath:     "/metrics",
		},
		TTS: TTSConfig{
			Voice:       "af_sarah",
			Speed:       1.0,
			Trim:        true,
			MaxPhonemes: 510,
		},
	}
}

// flagKeys maps each flag to the config key it overrides.
var flagKeys = map[string]string{
	"log-level":        "log_level",
	"espeak-path":      "phonemizer.espeak_path",
	"espeak-data-path": "phonemizer.espeak_data_path",
	"lang":             "phonemizer.default_lang",
	"batch-workers":    "phonemizer.workers",
	"listen-addr":      "server.listen_addr",
	"workers":          "server.workers",
	"max-text-bytes":   "server.max_text_bytes",
	"request-timeout":  "server.request_timeout",
	"shutdown-timeout": "server.shutdown_timeout",
	"metrics-path":     "server.metrics_path",
	"engine":           "tts.engine_path",
	"engine-arg":       "tts.engine_args",
	"voice":            "tts.voice",
	"speed":            "tts.speed",
	"trim":             "tts.trim",
	"max-phonemes":     "tts.max_phonemes",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("espeak-path", defaults.Phonemizer.ESpeakPath, "Path to the espeak-ng executable")
	fs.String("espeak-data-path", defaults.Phonemizer.ESpeakDataPath, "Directory containing espeak-ng-data")
	fs.String("lang", defaults.Phonemizer.DefaultLang, "Language code: a (US English) or b (UK English)")
	fs.Int("batch-workers", defaults.Phonemizer.Workers, "Max concurrent phonemizations in batch mode")
	fs.String("listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent HTTP requests doing work")
	fs.Int("max-text-bytes", defaults.Server.MaxTextBytes, "Max request text size in bytes")
	fs.Duration("request-timeout", defaults.Server.RequestTimeout, "Per-request processing timeout")
	fs.Duration("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout")
	fs.String("metrics-path", defaults.Server.MetricsPath, "Prometheus metrics path (empty disables)")
	fs.String("engine", defaults.TTS.EnginePath, "Path to the Kokoro inference executable")
	fs.StringSlice("engine-arg", defaults.TTS.EngineArgs, "Extra argument passed to the engine (repeatable)")
	fs.String("voice", defaults.TTS.Voice, "Default voice")
	fs.Float64("speed", defaults.TTS.Speed, "Default speech speed (0 < speed <= 5)")
	fs.Bool("trim", defaults.TTS.Trim, "Ask the engine to trim leading and trailing silence")
	fs.Int("max-phonemes", defaults.TTS.MaxPhonemes, "Max phonemes per engine call")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("KOKOROG2P")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	if err := v.BindEnv("phonemizer.espeak_path", "KOKOROG2P_PHONEMIZER_ESPEAK_PATH", "ESPEAK_NG_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind espeak env vars: %w", err)
	}
	if err := v.BindEnv("phonemizer.espeak_data_path", "KOKOROG2P_PHONEMIZER_ESPEAK_DATA_PATH", "ESPEAK_DATA_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind espeak env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("kokorog2p")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

// bindFlags binds every registered flag to its nested key. A flag only
// wins over file and env values when it was set explicitly.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("phonemizer.espeak_path", c.Phonemizer.ESpeakPath)
	v.SetDefault("phonemizer.espeak_data_path", c.Phonemizer.ESpeakDataPath)
	v.SetDefault("phonemizer.default_lang", c.Phonemizer.DefaultLang)
	v.SetDefault("phonemizer.workers", c.Phonemizer.Workers)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.metrics_path", c.Server.MetricsPath)
	v.SetDefault("tts.engine_path", c.TTS.EnginePath)
	v.SetDefault("tts.engine_args", c.TTS.EngineArgs)
	v.SetDefault("tts.voice", c.TTS.Voice)
	v.SetDefault("tts.speed", c.TTS.Speed)
	v.SetDefault("tts.trim", c.TTS.Trim)
	v.SetDefault("tts.max_phonemes", c.TTS.MaxPhonemes)
}
