package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	UploadsDir    string `toml:"uploads_dir"`
	RecordingsDir string `toml:"recordings_dir"`
	LogDir        string `toml:"log_dir"`
	Bind          string `toml:"bind"`
	APIToken      string `toml:"api_token"`
}

// Storage selects and tunes the persistence bridge.
type Storage struct {
	// Driver is either "json" (single document file) or "sqlite".
	Driver string `toml:"driver"`
}

// Security holds the clinician PIN used to gate recording actions.
// The PIN is a plain shared secret for a single-clinician deployment, not an
// authentication system.
type Security struct {
	PIN string `toml:"pin"`
}

// Transcription contains configuration for the WhisperX transcription
// collaborator and the client-side polling of its results.
type Transcription struct {
	Enabled         bool   `toml:"enabled"`
	Model           string `toml:"model"`
	Language        string `toml:"language"`
	CUDAEnabled     bool   `toml:"cuda_enabled"`
	Diarize         bool   `toml:"diarize"`
	HFToken         string `toml:"hf_token"`
	PollIntervalSec int    `toml:"poll_interval"`
	MaxPollAttempts int    `toml:"max_poll_attempts"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Appointments   bool   `toml:"appointments"`
	Transcription  bool   `toml:"transcription"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for MindCare.
//
// Configuration sections by subsystem:
//   - Paths: data/upload/recording directories and HTTP bind address
//   - Storage: persistence driver selection (json or sqlite)
//   - Security: clinician PIN gating recording actions
//   - Transcription: WhisperX subprocess and result-polling settings
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Storage       Storage       `toml:"storage"`
	Security      Security      `toml:"security"`
	Transcription Transcription `toml:"transcription"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mindcare/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. Secrets may be overlaid
// from the environment (a .env file next to the working directory is honored):
// MINDCARE_PIN and MINDCARE_API_TOKEN take precedence over file values.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	// Best-effort .env overlay; absence is not an error.
	_ = godotenv.Load()
	if pin := strings.TrimSpace(os.Getenv("MINDCARE_PIN")); pin != "" {
		cfg.Security.PIN = pin
	}
	if token := strings.TrimSpace(os.Getenv("MINDCARE_API_TOKEN")); token != "" {
		cfg.Paths.APIToken = token
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mindcare.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.UploadsDir, c.Paths.RecordingsDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PINConfigured reports whether a clinician PIN is set. When unset, PIN
// validation is permissive by design.
func (c *Config) PINConfigured() bool {
	return strings.TrimSpace(c.Security.PIN) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
