package config

import (
	"encoding/json"
	"net/http"
	"os"

	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL            string
	DatabaseName   string
	BaseURL        string
	Port           string
	Env            string
	JWTSecret      string
	SendgridAPIKey string
}

// New sets up all config related services
func New() *Config {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}

	logger, err := setLogger(env)
	if err == nil {
		_ = zap.ReplaceGlobals(logger)
	}

	return &Config{
		URL:            os.Getenv("DB_URI"),
		DatabaseName:   os.Getenv("DB_NAME"),
		BaseURL:        os.Getenv("BASE_URL"),
		Port:           os.Getenv("PORT"),
		Env:            env,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
	}
}

func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}

type errorBody struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// ErrorStatus logs the failure and writes the JSON error body for a given
// message, status code and err. Internal error detail is only echoed back to
// the client outside of production.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	body := errorBody{Success: false, Message: message}
	if err != nil && os.Getenv("APP_ENV") != "production" {
		body.Error = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// ErrorDetails writes a validation error response carrying per-field messages.
func ErrorDetails(message string, details []string, httpStatusCode int, w http.ResponseWriter) {
	zap.S().Warnw(message, "details", details)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Success: false, Message: message, Errors: details})
}
