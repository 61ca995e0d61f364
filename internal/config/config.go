package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultMaxUploadSize caps request bodies at 16 MiB.
const DefaultMaxUploadSize int64 = 16 << 20

// Tensor layouts understood by the classifier.
const (
	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"
)

// Config holds every tunable of the service.
type Config struct {
	Host           string
	Port           string
	GRPCHealthAddr string

	MaxUploadSize     int64
	AllowedExtensions []string
	UploadDir         string
	StaticDir         string

	ModelPath         string
	ModelMetadataPath string
	ModelInputName    string
	ModelOutputName   string
	ImageSize         int
	TensorLayout      string
	ONNXRuntimeLib    string
	InferenceTimeout  time.Duration

	ShutdownTimeout time.Duration
	SecretKey       string

	UploadRetention        time.Duration
	RetentionSweepInterval time.Duration
	RedisAddr              string

	MQTTBroker         string
	MQTTClientID       string
	MQTTUsername       string
	MQTTPassword       string
	MQTTTopicDiagnosis string

	CORSAllowedOrigins []string
	LogLevel           string
}

// ServerAddress returns the HTTP listen address.
func (c *Config) ServerAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnv("PORT", "5000"),
		GRPCHealthAddr: os.Getenv("GRPC_HEALTH_ADDR"),

		MaxUploadSize:     parseIntOrDefault("MAX_UPLOAD_SIZE", DefaultMaxUploadSize),
		AllowedExtensions: parseListOrDefault("ALLOWED_EXTENSIONS", []string{"png", "jpg", "jpeg"}),
		UploadDir:         getEnv("UPLOAD_DIR", "static/uploads"),
		StaticDir:         getEnv("STATIC_DIR", "static"),

		ModelPath:         getEnv("MODEL_PATH", "models/plant_disease.onnx"),
		ModelMetadataPath: os.Getenv("MODEL_METADATA_PATH"),
		ModelInputName:    getEnv("MODEL_INPUT_NAME", "input"),
		ModelOutputName:   getEnv("MODEL_OUTPUT_NAME", "output"),
		ImageSize:         int(parseIntOrDefault("IMAGE_SIZE", 224)),
		TensorLayout:      strings.ToLower(getEnv("TENSOR_LAYOUT", LayoutNHWC)),
		ONNXRuntimeLib:    os.Getenv("ONNXRUNTIME_LIB"),
		InferenceTimeout:  parseDurationOrDefault("INFERENCE_TIMEOUT", 10*time.Second),

		ShutdownTimeout: parseDurationOrDefault("SHUTDOWN_TIMEOUT", 15*time.Second),
		SecretKey:       getEnv("SECRET_KEY", "change-me"),

		UploadRetention:        parseDurationOrDefault("UPLOAD_RETENTION", 24*time.Hour),
		RetentionSweepInterval: parseDurationOrDefault("RETENTION_SWEEP_INTERVAL", 10*time.Minute),
		RedisAddr:              os.Getenv("REDIS_ADDR"),

		MQTTBroker:         os.Getenv("MQTT_BROKER"),
		MQTTClientID:       getEnv("MQTT_CLIENT_ID", "leafcheck"),
		MQTTUsername:       os.Getenv("MQTT_USERNAME"),
		MQTTPassword:       os.Getenv("MQTT_PASSWORD"),
		MQTTTopicDiagnosis: getEnv("MQTT_TOPIC_DIAGNOSIS", "leafcheck/diagnosis/{label}"),

		CORSAllowedOrigins: parseListOrDefault("CORS_ALLOWED_ORIGINS", nil),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
	if _, ok := os.LookupEnv("GRPC_HEALTH_ADDR"); !ok {
		cfg.GRPCHealthAddr = ":50051"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default its way out of.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0 (got %d)", c.MaxUploadSize)
	}
	if len(c.AllowedExtensions) == 0 {
		return fmt.Errorf("ALLOWED_EXTENSIONS must not be empty")
	}
	if c.ImageSize <= 0 {
		return fmt.Errorf("IMAGE_SIZE must be > 0 (got %d)", c.ImageSize)
	}
	if c.TensorLayout != LayoutNHWC && c.TensorLayout != LayoutNCHW {
		return fmt.Errorf("invalid TENSOR_LAYOUT: %q", c.TensorLayout)
	}
	if c.InferenceTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got inference=%s, shutdown=%s)", c.InferenceTimeout, c.ShutdownTimeout)
	}
	if c.UploadRetention < 0 {
		return fmt.Errorf("UPLOAD_RETENTION must be >= 0 (got %s)", c.UploadRetention)
	}
	if c.UploadRetention > 0 && c.RetentionSweepInterval <= 0 {
		return fmt.Errorf("RETENTION_SWEEP_INTERVAL must be > 0 when retention is enabled")
	}
	if strings.TrimSpace(c.UploadDir) == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if c.StaticDir != "" && sameDir(c.UploadDir, c.StaticDir) {
		return fmt.Errorf("UPLOAD_DIR must be a dedicated directory, not STATIC_DIR (%q)", c.StaticDir)
	}
	return nil
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
