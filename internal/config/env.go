package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// EnvFile is the dotenv file loaded before reading provider credentials.
const EnvFile = ".env.local"

// Credentials carries the provider secrets the worker needs to join a room.
// Values are read from the environment after loading .env.local; none are
// required so the console can run fully offline.
type Credentials struct {
	DeepgramAPIKey string `env:"DEEPGRAM_API_KEY"`
	GoogleAPIKey   string `env:"GOOGLE_API_KEY"`
	MurfAPIKey     string `env:"MURF_API_KEY"`
	RoomURL        string `env:"TALKSHOP_ROOM_URL"`
	RoomToken      string `env:"TALKSHOP_ROOM_TOKEN"`
}

// LoadCredentials reads .env.local from the project directory (when present)
// and then populates Credentials from the environment.
func LoadCredentials(projectDir string) (Credentials, error) {
	path := filepath.Join(projectDir, EnvFile)
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Credentials{}, fmt.Errorf("config: load %s: %w", EnvFile, err)
	}
	var creds Credentials
	if err := cleanenv.ReadEnv(&creds); err != nil {
		return Credentials{}, fmt.Errorf("config: read env: %w", err)
	}
	return creds, nil
}

// HasProviderKeys reports whether every provider credential is present.
func (c Credentials) HasProviderKeys() bool {
	return strings.TrimSpace(c.DeepgramAPIKey) != "" &&
		strings.TrimSpace(c.GoogleAPIKey) != "" &&
		strings.TrimSpace(c.MurfAPIKey) != ""
}

// MissingProviderKeys lists the provider environment variables that are unset.
func (c Credentials) MissingProviderKeys() []string {
	var missing []string
	if strings.TrimSpace(c.DeepgramAPIKey) == "" {
		missing = append(missing, "DEEPGRAM_API_KEY")
	}
	if strings.TrimSpace(c.GoogleAPIKey) == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if strings.TrimSpace(c.MurfAPIKey) == "" {
		missing = append(missing, "MURF_API_KEY")
	}
	return missing
}
