package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "crm"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App      AppConfig
	Firebase FirebaseConfig
	CORS     CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CRM_APP_ENV" default:"development"`
	Port         string `envconfig:"CRM_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CRM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type FirebaseConfig struct {
	ProjectID       string `envconfig:"CRM_FIREBASE_PROJECT_ID" required:"true"`
	CredentialsFile string `envconfig:"CRM_FIREBASE_CREDENTIALS_FILE"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CRM_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}
