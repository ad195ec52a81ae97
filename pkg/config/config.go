package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	GigaChat GigaChatConfig
	OCR      OCRConfig
	KYC      KYCConfig
	Redis    RedisConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level  string
	Format string // json | console
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

// StorageConfig selects the repository backend and where uploaded files land.
type StorageConfig struct {
	Driver         string // postgres | memory
	UploadDir      string
	MaxUploadBytes int64
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type OCRConfig struct {
	Provider       string // tesseract | gigachat
	Languages      []string
	Timeout        time.Duration
	TessdataPrefix string
	PDFRasterize   bool
	PDFDPI         float64
	PDFMaxPages    int
	// MaxConcurrent bounds in-flight Tesseract runs; 0 means one per CPU.
	MaxConcurrent int
}

type KYCConfig struct {
	// RulesFile is an optional YAML overlay on the built-in rule sets.
	RulesFile string
}

// RedisConfig is optional; notifications fall back to the log when Addr is empty.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	NotifyChannel string
}

func Load() (*Config, error) {
	// .env is optional, plain environment variables work too (Docker/K8s).
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	maxUpload, err := strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "10485760"), 10, 64)
	if err != nil || maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	ocrTimeout, _ := strconv.Atoi(getEnv("OCR_TIMEOUT_SECONDS", "30"))
	pdfDPI, _ := strconv.ParseFloat(getEnv("OCR_PDF_DPI", "200"), 64)
	pdfMaxPages, _ := strconv.Atoi(getEnv("OCR_PDF_MAX_PAGES", "10"))
	ocrMaxConcurrent, _ := strconv.Atoi(getEnv("OCR_MAX_CONCURRENT", "0"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	dbMaxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	dbConnLifetime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_LIFETIME_MINUTES", "60"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "false") == "true"

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "agro_kyc"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxConns:        int32(dbMaxConns),
			ConnMaxLifetime: time.Duration(dbConnLifetime) * time.Minute,
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		Storage: StorageConfig{
			Driver:         getEnv("STORAGE_DRIVER", "postgres"),
			UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
			MaxUploadBytes: maxUpload,
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		OCR: OCRConfig{
			Provider:       getEnv("OCR_PROVIDER", "tesseract"),
			Languages:      splitList(getEnv("OCR_LANGUAGES", "por,eng")),
			Timeout:        time.Duration(ocrTimeout) * time.Second,
			TessdataPrefix: getEnv("OCR_TESSDATA_PREFIX", ""),
			PDFRasterize:   getEnv("OCR_PDF_RASTERIZE", "true") == "true",
			PDFDPI:         pdfDPI,
			PDFMaxPages:    pdfMaxPages,
			MaxConcurrent:  ocrMaxConcurrent,
		},
		KYC: KYCConfig{
			RulesFile: getEnv("KYC_RULES_FILE", ""),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", ""),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            redisDB,
			NotifyChannel: getEnv("REDIS_NOTIFY_CHANNEL", "kyc.notifications"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
