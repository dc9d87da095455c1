package config

import (
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/settings"
)

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "LOCSYNC"

// Env holds secrets and overrides taken from the environment. Each
// variable is read as LOCSYNC_<NAME>, falling back to the bare <NAME>
// (so a plain DATABASE_URL works).
type Env struct {
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	GoogleAPIKey string `envconfig:"GOOGLE_API_KEY"`
	LLMAPIKey    string `envconfig:"LLM_API_KEY"`
	AWSRegion    string `envconfig:"AWS_REGION"`
	LogLevel     string `envconfig:"LOG_LEVEL"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, xerrors.Errorf("reading environment: %w", err)
	}
	return env, nil
}

// APIKey returns the key for a provider definition: the environment
// first, then the credential store.
func (e Env) APIKey(def ProviderDef) string {
	switch def.Type {
	case ProviderCloud:
		if e.GoogleAPIKey != "" {
			return e.GoogleAPIKey
		}
	case ProviderOpenAI, ProviderGemini, ProviderOllama:
		if e.LLMAPIKey != "" {
			return e.LLMAPIKey
		}
	}
	return settings.GetAPIKey(def.Name)
}
