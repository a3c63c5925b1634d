package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds the complete configuration for both auris services. It is
// loaded once at process start and treated as immutable afterwards.
type Config struct {
	General GeneralConfig `toml:"general"`
	Listen  ListenConfig  `toml:"listen"`
	Speak   SpeakConfig   `toml:"speak"`
	OpenAI  OpenAIConfig  `toml:"openai"`
}

// GeneralConfig holds settings shared by both services.
type GeneralConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	DataDir   string `toml:"data_dir"`
}

// ListenConfig holds the capture/transcription service settings.
type ListenConfig struct {
	// Engine selects the transcription backend: auto, whisper-cli,
	// whisper-server, or openai.
	Engine   string `toml:"engine"`
	Language string `toml:"language"`

	// Device is the input device name; empty means the system default.
	Device     string `toml:"device"`
	SampleRate int    `toml:"sample_rate"`

	// DefaultDuration and MaxDuration bound a capture in seconds.
	DefaultDuration int `toml:"default_duration"`
	MaxDuration     int `toml:"max_duration"`

	// SilenceThreshold is an RMS level in int16 sample units; blocks at or
	// above it count as speech. SilenceDuration is how many seconds of
	// trailing silence end a capture once speech has been heard.
	SilenceThreshold int     `toml:"silence_threshold"`
	SilenceDuration  float64 `toml:"silence_duration"`

	// VADEngine selects the speech detector: energy (default) or webrtc.
	VADEngine string `toml:"vad_engine"`
	// VADMode is the webrtc detector aggressiveness (0-3).
	VADMode int `toml:"vad_mode"`

	Whisper WhisperConfig `toml:"whisper"`

	// HistoryPath enables the sqlite utterance history when non-empty.
	HistoryPath string `toml:"history_path"`
	// MonitorAddr enables the capture monitor WebSocket endpoint.
	MonitorAddr string `toml:"monitor_addr"`
	// HealthAddr enables the gRPC health endpoint.
	HealthAddr string `toml:"health_addr"`
}

// WhisperConfig holds the local whisper backend settings.
type WhisperConfig struct {
	// BinaryPath overrides PATH discovery of the whisper-cli binary.
	BinaryPath string `toml:"binary_path"`
	ModelPath  string `toml:"model_path"`
	ServerURL  string `toml:"server_url"`
}

// SpeakConfig holds the synthesis service settings.
type SpeakConfig struct {
	// Engine selects the synthesis backend: auto, say, piper, or openai.
	Engine string `toml:"engine"`

	// Voice is the default voice; Rate the speech rate in words per minute
	// (0 uses the engine default).
	Voice string `toml:"voice"`
	Rate  int    `toml:"rate"`

	Piper PiperConfig `toml:"piper"`

	// VoiceProfiles points at an optional YAML file of named voice presets.
	VoiceProfiles string `toml:"voice_profiles"`

	HistoryPath string `toml:"history_path"`
	HealthAddr  string `toml:"health_addr"`
}

// PiperConfig holds the piper backend settings.
type PiperConfig struct {
	BinaryPath string `toml:"binary_path"`
	ModelPath  string `toml:"model_path"`
	VoicesDir  string `toml:"voices_dir"`
	SampleRate int    `toml:"sample_rate"`
}

// OpenAIConfig holds the shared cloud credentials. A missing key is not a
// configuration error; it makes the cloud candidates unavailable and is
// reported by engine selection instead.
type OpenAIConfig struct {
	APIKey   string `toml:"api_key"`
	STTModel string `toml:"stt_model"`
	TTSModel string `toml:"tts_model"`
}

// Load reads configuration in three layers: defaults, an optional TOML
// file, then environment variables (including a .env file when present).
func Load() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg := defaults()

	if path := configPath(); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configPath() string {
	if path := os.Getenv("AURIS_CONFIG"); path != "" {
		return os.ExpandEnv(path)
	}
	candidates := []string{
		"./configs/auris.toml",
		"./auris.toml",
		filepath.Join(os.Getenv("HOME"), ".config/auris/auris.toml"),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:  "info",
			LogFormat: "json",
			DataDir:   "./data",
		},
		Listen: ListenConfig{
			Engine:           "auto",
			Language:         "en",
			SampleRate:       16000,
			DefaultDuration:  5,
			MaxDuration:      30,
			SilenceThreshold: 500,
			SilenceDuration:  2.0,
			VADEngine:        "energy",
			VADMode:          2,
		},
		Speak: SpeakConfig{
			Engine: "auto",
			Piper: PiperConfig{
				SampleRate: 22050,
			},
		},
		OpenAI: OpenAIConfig{
			STTModel: "whisper-1",
			TTSModel: "tts-1",
		},
	}
}

func (c *Config) applyEnv() {
	setString(&c.General.LogLevel, "AURIS_LOG_LEVEL")
	setString(&c.General.LogFormat, "AURIS_LOG_FORMAT")
	setString(&c.General.DataDir, "AURIS_DATA_DIR")

	setString(&c.Listen.Engine, "AURIS_STT_ENGINE")
	setString(&c.Listen.Language, "AURIS_LANGUAGE")
	setString(&c.Listen.Device, "AURIS_AUDIO_DEVICE")
	setInt(&c.Listen.SampleRate, "AURIS_SAMPLE_RATE")
	setInt(&c.Listen.DefaultDuration, "AURIS_DEFAULT_DURATION")
	setInt(&c.Listen.MaxDuration, "AURIS_MAX_DURATION")
	setInt(&c.Listen.SilenceThreshold, "AURIS_SILENCE_THRESHOLD")
	setFloat(&c.Listen.SilenceDuration, "AURIS_SILENCE_DURATION")
	setString(&c.Listen.VADEngine, "AURIS_VAD_ENGINE")
	setString(&c.Listen.Whisper.BinaryPath, "AURIS_WHISPER_BINARY")
	setString(&c.Listen.Whisper.ModelPath, "AURIS_WHISPER_MODEL")
	setString(&c.Listen.Whisper.ServerURL, "AURIS_WHISPER_SERVER_URL")
	setString(&c.Listen.HistoryPath, "AURIS_LISTEN_HISTORY")
	setString(&c.Listen.MonitorAddr, "AURIS_MONITOR_ADDR")
	setString(&c.Listen.HealthAddr, "AURIS_LISTEN_HEALTH_ADDR")

	setString(&c.Speak.Engine, "AURIS_TTS_ENGINE")
	setString(&c.Speak.Voice, "AURIS_VOICE")
	setInt(&c.Speak.Rate, "AURIS_RATE")
	setString(&c.Speak.Piper.BinaryPath, "AURIS_PIPER_BINARY")
	setString(&c.Speak.Piper.ModelPath, "AURIS_PIPER_MODEL")
	setString(&c.Speak.Piper.VoicesDir, "AURIS_PIPER_VOICES_DIR")
	setString(&c.Speak.VoiceProfiles, "AURIS_VOICE_PROFILES")
	setString(&c.Speak.HistoryPath, "AURIS_SPEAK_HISTORY")
	setString(&c.Speak.HealthAddr, "AURIS_SPEAK_HEALTH_ADDR")

	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.STTModel, "AURIS_OPENAI_STT_MODEL")
	setString(&c.OpenAI.TTSModel, "AURIS_OPENAI_TTS_MODEL")
}

func (c *Config) validate() error {
	if c.Listen.SampleRate <= 0 {
		return fmt.Errorf("listen.sample_rate must be positive, got %d", c.Listen.SampleRate)
	}
	if c.Listen.MaxDuration <= 0 {
		return fmt.Errorf("listen.max_duration must be positive, got %d", c.Listen.MaxDuration)
	}
	if c.Listen.DefaultDuration <= 0 {
		return fmt.Errorf("listen.default_duration must be positive, got %d", c.Listen.DefaultDuration)
	}
	if c.Listen.DefaultDuration > c.Listen.MaxDuration {
		c.Listen.DefaultDuration = c.Listen.MaxDuration
	}
	if c.Listen.SilenceDuration <= 0 {
		return fmt.Errorf("listen.silence_duration must be positive, got %v", c.Listen.SilenceDuration)
	}
	if c.Listen.SilenceThreshold < 0 {
		return fmt.Errorf("listen.silence_threshold must not be negative, got %d", c.Listen.SilenceThreshold)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
