package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Dosada05/event-portal/models"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string
	ServerPort  int
	PublicURL   string

	// Провайдер идентификации
	IdentityJWTSecret string
	IdentityIssuer    string

	// Начальный статус индивидуальной регистрации (confirmed или pending)
	IndividualRegistrationStatus models.RegistrationStatus

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	CheckInSecret      string
	CORSAllowedOrigins []string
	TracingEnabled     bool

	SubmitRatePerSecond float64
	SubmitBurst         int
}

// SMTPEnabled сообщает, настроена ли отправка почты.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// R2Enabled сообщает, настроено ли объектное хранилище.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtSecret := os.Getenv("IDENTITY_JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("IDENTITY_JWT_SECRET environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	status := models.RegistrationStatus(getEnvOrDefault("INDIVIDUAL_REGISTRATION_STATUS", string(models.RegistrationConfirmed)))
	if status != models.RegistrationConfirmed && status != models.RegistrationPending {
		return nil, fmt.Errorf("INDIVIDUAL_REGISTRATION_STATUS must be %q or %q, got %q",
			models.RegistrationConfirmed, models.RegistrationPending, status)
	}

	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	rate, err := strconv.ParseFloat(getEnvOrDefault("SUBMIT_RATE_PER_SECOND", "1"), 64)
	if err != nil || rate <= 0 {
		return nil, fmt.Errorf("invalid SUBMIT_RATE_PER_SECOND environment variable: %q", os.Getenv("SUBMIT_RATE_PER_SECOND"))
	}
	burst, err := intEnv("SUBMIT_BURST", 3)
	if err != nil {
		return nil, err
	}

	checkInSecret := os.Getenv("CHECKIN_SECRET")
	if checkInSecret == "" {
		// Без отдельного секрета коды билетов подписываются секретом провайдера
		checkInSecret = jwtSecret
	}

	cfg := &Config{
		DatabaseURL:                  dbURL,
		ServerPort:                   port,
		PublicURL:                    strings.TrimRight(getEnvOrDefault("PUBLIC_URL", "http://localhost:3000"), "/"),
		IdentityJWTSecret:            jwtSecret,
		IdentityIssuer:               os.Getenv("IDENTITY_ISSUER"),
		IndividualRegistrationStatus: status,
		SMTPHost:                     os.Getenv("SMTP_HOST"),
		SMTPPort:                     smtpPort,
		SMTPUser:                     os.Getenv("SMTP_USER"),
		SMTPPass:                     os.Getenv("SMTP_PASS"),
		SMTPFrom:                     os.Getenv("SMTP_FROM"),
		R2AccountID:                  os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:                os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:            os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:                 os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:              os.Getenv("R2_PUBLIC_BASE_URL"),
		CheckInSecret:                checkInSecret,
		CORSAllowedOrigins:           splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		TracingEnabled:               getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		SubmitRatePerSecond:          rate,
		SubmitBurst:                  burst,
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
