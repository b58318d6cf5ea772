package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL            string
	DatabaseName   string
	BaseURL        string
	Port           string
	Env            string
	AdminPassword  string
	JWTSecret      string
	JWTTTL         time.Duration
	CaseIDPrefix   string
	RequestTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RateLimit     int
	RateWindow    time.Duration

	// TrustedProxies are the peer addresses whose X-Forwarded-For is believed
	TrustedProxies []string

	SendGridAPIKey string
	MailFrom       string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadPreset string

	DigestSchedule string
}

// New sets up all config related services
func New() *Config {
	env := getenv("ENV", "local")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:            os.Getenv("DB_URI"),
		DatabaseName:   getenv("DB_NAME", "cybercell"),
		BaseURL:        os.Getenv("BASE_URL"),
		Port:           getenv("PORT", "8080"),
		Env:            env,
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		JWTSecret:      getenv("JWT_SECRET", "fallback_secret"),
		JWTTTL:         getenvDuration("JWT_TTL", 7*24*time.Hour),
		CaseIDPrefix:   getenv("CASE_ID_PREFIX", "CYB"),
		RequestTimeout: getenvDuration("REQUEST_TIMEOUT", 30*time.Second),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RateLimit:     getenvInt("RATE_LIMIT", 30),
		RateWindow:    getenvDuration("RATE_WINDOW", time.Minute),

		TrustedProxies: getenvList("TRUSTED_PROXIES"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getenv("MAIL_FROM", "no-reply@cybercell.example"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),

		DigestSchedule: getenv("DIGEST_SCHEDULE", "0 3 * * *"),
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. The err is only logged, the caller sees the message.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With("error", err).Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(map[string]string{"error": message})
	w.Write(b)
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
