package common

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	Server ServerConfig `yaml:"server"`
	OCR    OCRConfig    `yaml:"ocr"`
	PDF    PDFConfig    `yaml:"pdf"`
	LLM    LLMConfig    `yaml:"llm"`
	Result ResultConfig `yaml:"result"`
	JobLog JobLogConfig `yaml:"job_log"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string        `yaml:"http_addr"`
	HealthGRPCAddr string        `yaml:"health_grpc_addr"` // empty disables the gRPC health listener
	UploadField    string        `yaml:"upload_field"`
	MaxUploadMB    int64         `yaml:"max_upload_mb"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"` // 0 = none
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string `yaml:"tesseract"`
	TesseractLang string `yaml:"tesseract_lang"`
	TessdataDir   string `yaml:"tessdata_dir"`
	PSM           int    `yaml:"psm"`
	OEM           int    `yaml:"oem"`
	HeicConverter string `yaml:"heic_converter"`
}

// PDFConfig selects and tunes the PDF text-layer extractor.
type PDFConfig struct {
	Backend   string `yaml:"backend"` // "pdftotext" | "pdfcpu"
	Pdftotext string `yaml:"pdftotext"`
	Layout    bool   `yaml:"layout"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // "gemini" | "openai"
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature *float64      `yaml:"temperature"` // nil = provider default
	Timeout     time.Duration `yaml:"timeout"`     // 0 = bounded only by the request context
}

// ResultConfig chooses how a batch's artifacts collapse into one response.
type ResultConfig struct {
	Policy string `yaml:"policy"` // "last" | "all"
}

// JobLogConfig configures the optional extract_job ledger.
type JobLogConfig struct {
	DSN string `yaml:"dsn"` // empty disables; postgres:// uses pgx, anything else sqlite
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	BackendPdftotext = "pdftotext"
	BackendPdfcpu    = "pdfcpu"

	PolicyLast = "last"
	PolicyAll  = "all"

	DefaultGeminiModel = "gemini-1.5-pro-latest"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// LoadConfig builds the configuration from, in increasing precedence:
// defaults, the YAML file named by CONFIG_FILE, a local .env file and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config.dotenv.load_failed", "error", err)
	}

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fileCfg, err := LoadConfigFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "cannot read "+path, err)
		}
		cfg = fileCfg
	}
	cfg.applyEnv()
	cfg.defaults()
	return cfg, nil
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.HealthGRPCAddr = getEnv("HEALTH_GRPC_ADDR", c.Server.HealthGRPCAddr)
	c.Server.UploadField = getEnv("UPLOAD_FIELD", c.Server.UploadField)
	c.Server.MaxUploadMB = getEnvAsInt64("MAX_UPLOAD_MB", c.Server.MaxUploadMB)
	c.Server.ReadTimeout = getEnvAsDuration("HTTP_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("HTTP_WRITE_TIMEOUT", c.Server.WriteTimeout)

	c.OCR.Tesseract = getEnv("TESSERACT_CMD", c.OCR.Tesseract)
	c.OCR.TesseractLang = getEnv("TESSERACT_LANG", c.OCR.TesseractLang)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.PSM = getEnvAsInt("TESSERACT_PSM", c.OCR.PSM)
	c.OCR.OEM = getEnvAsInt("TESSERACT_OEM", c.OCR.OEM)
	c.OCR.HeicConverter = getEnv("HEIC_CONVERTER", c.OCR.HeicConverter)

	c.PDF.Backend = strings.ToLower(getEnv("PDF_BACKEND", c.PDF.Backend))
	c.PDF.Pdftotext = getEnv("PDFTOTEXT_CMD", c.PDF.Pdftotext)
	c.PDF.Layout = getEnvAsBool("PDF_LAYOUT", c.PDF.Layout)

	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)
	if v, ok := lookupFloat("LLM_TEMPERATURE"); ok {
		c.LLM.Temperature = &v
	}
	c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)

	c.Result.Policy = strings.ToLower(getEnv("RESULT_POLICY", c.Result.Policy))
	c.JobLog.DSN = getEnv("JOB_LOG_DSN", c.JobLog.DSN)

	c.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", c.Log.Level))
	c.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", c.Log.Format))
}

func (c *Config) defaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":5000"
	}
	if !strings.Contains(c.Server.HTTPAddr, ":") {
		c.Server.HTTPAddr = ":" + c.Server.HTTPAddr
	}
	if c.Server.UploadField == "" {
		c.Server.UploadField = "files"
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 32
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 60 * time.Second
	}

	if c.OCR.Tesseract == "" {
		c.OCR.Tesseract = "tesseract"
	}
	if c.OCR.TesseractLang == "" {
		c.OCR.TesseractLang = "eng"
	}
	if c.OCR.HeicConverter == "" {
		c.OCR.HeicConverter = "magick"
	}

	if c.PDF.Backend == "" {
		c.PDF.Backend = BackendPdftotext
	}
	if c.PDF.Pdftotext == "" {
		c.PDF.Pdftotext = "pdftotext"
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}
	if c.LLM.Model == "" {
		if c.LLM.Provider == ProviderOpenAI {
			c.LLM.Model = DefaultOpenAIModel
		} else {
			c.LLM.Model = DefaultGeminiModel
		}
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case ProviderOpenAI:
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	if c.Result.Policy == "" {
		c.Result.Policy = PolicyLast
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// MaxUploadBytes is the request body limit derived from MaxUploadMB.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return NewAppError("CONFIG_ERROR", "LLM_PROVIDER must be gemini or openai, got "+strconv.Quote(c.LLM.Provider), ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "an API key is required for provider "+c.LLM.Provider, ErrInvalidInput)
	}
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "LLM_MODEL is required", ErrInvalidInput)
	}
	switch c.PDF.Backend {
	case BackendPdftotext, BackendPdfcpu:
	default:
		return NewAppError("CONFIG_ERROR", "PDF_BACKEND must be pdftotext or pdfcpu, got "+strconv.Quote(c.PDF.Backend), ErrInvalidInput)
	}
	switch c.Result.Policy {
	case PolicyLast, PolicyAll:
	default:
		return NewAppError("CONFIG_ERROR", "RESULT_POLICY must be last or all, got "+strconv.Quote(c.Result.Policy), ErrInvalidInput)
	}
	if c.Server.UploadField == "" {
		return NewAppError("CONFIG_ERROR", "UPLOAD_FIELD is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func lookupFloat(key string) (float64, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
