package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type TTSConfig struct {
	APIKey        string  `yaml:"api_key"`
	Endpoint      string  `yaml:"endpoint"`
	VoiceID       string  `yaml:"voice_id"`
	ModelID       string  `yaml:"model_id"`
	Stability     float64 `yaml:"stability"`
	Similarity    float64 `yaml:"similarity_boost"`
	TimeoutMS     int     `yaml:"timeout_ms"`
	MaxChunkChars int     `yaml:"max_chunk_chars"`
	Concurrency   int     `yaml:"concurrency"`
	Mode          string  `yaml:"mode"` // mock, elevenlabs
}

type LLMConfig struct {
	APIKey    string `yaml:"api_key"`
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	MaxWords  int    `yaml:"max_words"`
	TimeoutMS int    `yaml:"timeout_ms"`
	Mode      string `yaml:"mode"` // mock, cohere
}

type STTConfig struct {
	ModelPath  string `yaml:"model_path"`
	ModelURL   string `yaml:"model_url"`
	SampleRate int    `yaml:"sample_rate"`
	FrameBlock int    `yaml:"frame_block"`
	Mode       string `yaml:"mode"` // mock, vosk
}

type IngestConfig struct {
	Command string `yaml:"command"`
	WorkDir string `yaml:"work_dir"`
}

type AudioCacheConfig struct {
	MaxSessions int `yaml:"max_sessions"`
	TTLSeconds  int `yaml:"ttl_seconds"`
	PacingMS    int `yaml:"pacing_ms"`
}

type MemoryConfig struct {
	Path          string `yaml:"path"`
	MaxResults    int    `yaml:"max_results"`
	MinTrainChars int    `yaml:"min_train_chars"`
	MaxTrainChars int    `yaml:"max_train_chars"`
}

type Config struct {
	RuntimeName string           `yaml:"runtime_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	TTS         TTSConfig        `yaml:"tts"`
	LLM         LLMConfig        `yaml:"llm"`
	STT         STTConfig        `yaml:"stt"`
	Ingest      IngestConfig     `yaml:"ingest"`
	AudioCache  AudioCacheConfig `yaml:"audio_cache"`
	Memory      MemoryConfig     `yaml:"memory"`
}

func Default() Config {
	return Config{
		RuntimeName: "voice-core",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8000,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		TTS: TTSConfig{
			Endpoint:      "https://api.elevenlabs.io/v1/text-to-speech",
			VoiceID:       "EXAVITQu4vr4xnSDxMaL",
			ModelID:       "eleven_multilingual_v2",
			Stability:     0.5,
			Similarity:    0.5,
			TimeoutMS:     60000,
			MaxChunkChars: 250,
			Concurrency:   1,
			Mode:          "elevenlabs",
		},
		LLM: LLMConfig{
			Endpoint:  "https://api.cohere.ai/v1",
			Model:     "command-r",
			MaxWords:  150,
			TimeoutMS: 30000,
			Mode:      "cohere",
		},
		STT: STTConfig{
			ModelPath:  "./data/vosk-model",
			ModelURL:   "",
			SampleRate: 16000,
			FrameBlock: 4000,
			Mode:       "vosk",
		},
		Ingest: IngestConfig{
			Command: "ffmpeg",
			WorkDir: os.TempDir(),
		},
		AudioCache: AudioCacheConfig{
			MaxSessions: 0,
			TTLSeconds:  0,
			PacingMS:    50,
		},
		Memory: MemoryConfig{
			Path:          "./data/memories.db",
			MaxResults:    3,
			MinTrainChars: 100,
			MaxTrainChars: 3000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "VOICE_RUNTIME_NAME")
	overrideString(&cfg.Environment, "VOICE_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "VOICE_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "VOICE_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "VOICE_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VOICE_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VOICE_TELEMETRY_OTLP_INSECURE")

	// The original deployment configured the upstream credentials with these
	// names, so they stay recognized alongside the VOICE_* scheme.
	overrideString(&cfg.TTS.APIKey, "ELEVENLABS_API_KEY")
	overrideString(&cfg.TTS.VoiceID, "ELEVENLABS_VOICE_ID")
	overrideString(&cfg.LLM.APIKey, "COHERE_API_KEY")

	overrideString(&cfg.TTS.APIKey, "VOICE_TTS_API_KEY")
	overrideString(&cfg.TTS.Endpoint, "VOICE_TTS_ENDPOINT")
	overrideString(&cfg.TTS.VoiceID, "VOICE_TTS_VOICE_ID")
	overrideString(&cfg.TTS.ModelID, "VOICE_TTS_MODEL_ID")
	overrideInt(&cfg.TTS.TimeoutMS, "VOICE_TTS_TIMEOUT_MS")
	overrideInt(&cfg.TTS.MaxChunkChars, "VOICE_TTS_MAX_CHUNK_CHARS")
	overrideInt(&cfg.TTS.Concurrency, "VOICE_TTS_CONCURRENCY")
	overrideString(&cfg.TTS.Mode, "VOICE_TTS_MODE")
	overrideString(&cfg.LLM.APIKey, "VOICE_LLM_API_KEY")
	overrideString(&cfg.LLM.Endpoint, "VOICE_LLM_ENDPOINT")
	overrideString(&cfg.LLM.Model, "VOICE_LLM_MODEL")
	overrideInt(&cfg.LLM.MaxWords, "VOICE_LLM_MAX_WORDS")
	overrideInt(&cfg.LLM.TimeoutMS, "VOICE_LLM_TIMEOUT_MS")
	overrideString(&cfg.LLM.Mode, "VOICE_LLM_MODE")
	overrideString(&cfg.STT.ModelPath, "VOICE_STT_MODEL_PATH")
	overrideString(&cfg.STT.ModelURL, "VOICE_STT_MODEL_URL")
	overrideInt(&cfg.STT.SampleRate, "VOICE_STT_SAMPLE_RATE")
	overrideInt(&cfg.STT.FrameBlock, "VOICE_STT_FRAME_BLOCK")
	overrideString(&cfg.STT.Mode, "VOICE_STT_MODE")
	overrideString(&cfg.Ingest.Command, "VOICE_INGEST_COMMAND")
	overrideString(&cfg.Ingest.WorkDir, "VOICE_INGEST_WORK_DIR")
	overrideInt(&cfg.AudioCache.MaxSessions, "VOICE_AUDIO_CACHE_MAX_SESSIONS")
	overrideInt(&cfg.AudioCache.TTLSeconds, "VOICE_AUDIO_CACHE_TTL_SECONDS")
	overrideInt(&cfg.AudioCache.PacingMS, "VOICE_AUDIO_CACHE_PACING_MS")
	overrideString(&cfg.Memory.Path, "VOICE_MEMORY_PATH")
	overrideInt(&cfg.Memory.MaxResults, "VOICE_MEMORY_MAX_RESULTS")
	overrideInt(&cfg.Memory.MinTrainChars, "VOICE_MEMORY_MIN_TRAIN_CHARS")
	overrideInt(&cfg.Memory.MaxTrainChars, "VOICE_MEMORY_MAX_TRAIN_CHARS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	switch cfg.TTS.Mode {
	case "mock", "elevenlabs":
	default:
		return errors.New("tts.mode must be one of mock|elevenlabs")
	}
	if cfg.TTS.Mode == "elevenlabs" && cfg.TTS.Endpoint == "" {
		return errors.New("tts.endpoint must be set when mode=elevenlabs")
	}
	if cfg.TTS.MaxChunkChars < 1 {
		return errors.New("tts.max_chunk_chars must be >= 1")
	}
	if cfg.TTS.Concurrency < 1 {
		return errors.New("tts.concurrency must be >= 1")
	}
	if cfg.TTS.TimeoutMS <= 0 {
		return errors.New("tts.timeout_ms must be positive")
	}
	switch cfg.LLM.Mode {
	case "mock", "cohere":
	default:
		return errors.New("llm.mode must be one of mock|cohere")
	}
	if cfg.LLM.Mode == "cohere" && cfg.LLM.Endpoint == "" {
		return errors.New("llm.endpoint must be set when mode=cohere")
	}
	if cfg.LLM.MaxWords < 0 {
		return errors.New("llm.max_words must be >= 0")
	}
	switch cfg.STT.Mode {
	case "mock", "vosk":
	default:
		return errors.New("stt.mode must be one of mock|vosk")
	}
	if cfg.STT.Mode == "vosk" && cfg.STT.ModelPath == "" {
		return errors.New("stt.model_path must be set when mode=vosk")
	}
	if cfg.STT.SampleRate <= 0 {
		return errors.New("stt.sample_rate must be positive")
	}
	if cfg.STT.FrameBlock <= 0 {
		return errors.New("stt.frame_block must be positive")
	}
	if cfg.Ingest.Command == "" {
		return errors.New("ingest.command must not be empty")
	}
	if cfg.AudioCache.MaxSessions < 0 {
		return errors.New("audio_cache.max_sessions must be >= 0")
	}
	if cfg.AudioCache.TTLSeconds < 0 {
		return errors.New("audio_cache.ttl_seconds must be >= 0")
	}
	if cfg.AudioCache.PacingMS < 0 {
		return errors.New("audio_cache.pacing_ms must be >= 0")
	}
	if cfg.Memory.Path == "" {
		return errors.New("memory.path must not be empty")
	}
	if cfg.Memory.MaxResults <= 0 {
		return errors.New("memory.max_results must be >= 1")
	}
	if cfg.Memory.MinTrainChars < 0 || cfg.Memory.MaxTrainChars < cfg.Memory.MinTrainChars {
		return errors.New("memory.max_train_chars must be >= memory.min_train_chars")
	}
	return nil
}
