// Package transcriber wraps the WhisperX command line for session-recording
// transcription with optional speaker diarization.
package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Config captures runtime settings for transcription runs.
type Config struct {
	// Model is the WhisperX model to use (e.g. "large-v3-turbo").
	Model string
	// Language is the expected speech language (ISO-639-1).
	Language string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// Diarize enables speaker diarization; requires HFToken.
	Diarize bool
	// HFToken is the Hugging Face token for pyannote diarization.
	HFToken string
}

const (
	DefaultModel    = "large-v3-turbo"
	DefaultLanguage = "es"
	CUDAIndexURL    = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL    = "https://pypi.org/simple"
	BatchSize       = "4"
	OutputFormat    = "json"
	CPUDevice       = "cpu"
	CUDADevice      = "cuda"
	CPUComputeType  = "float32"
)

// UVXCommand launches WhisperX through uv's tool runner.
const UVXCommand = "uvx"

// Service invokes WhisperX as a subprocess.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a transcription service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the effective model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Segment is one transcribed span from the WhisperX JSON output. Speaker is
// empty when diarization is disabled.
type Segment struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}

// Result contains the outcome of one transcription run.
type Result struct {
	// Text is the plain concatenated transcription.
	Text string
	// JSONPath is the path of the WhisperX JSON output file.
	JSONPath string
	// Segments are the parsed spans, in order.
	Segments []Segment
}

// Transcribe runs WhisperX over the source audio file, writing its output
// into outputDir, and returns the parsed result.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string) (Result, error) {
	var result Result

	if source == "" {
		return result, fmt.Errorf("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	if err := s.run(ctx, UVXCommand, s.buildArgs(source, outputDir)...); err != nil {
		return result, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	result.JSONPath = filepath.Join(outputDir, baseName+".json")

	segments, err := LoadSegments(result.JSONPath)
	if err != nil {
		return result, fmt.Errorf("transcribe: read output: %w", err)
	}
	result.Segments = segments
	result.Text = joinText(segments)
	return result, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
	)

	language := s.cfg.Language
	if language == "" {
		language = DefaultLanguage
	}
	args = append(args, "--language", language)

	if s.cfg.Diarize && s.cfg.HFToken != "" {
		args = append(args, "--diarize", "--hf_token", s.cfg.HFToken)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// whisperXPayload is the JSON structure written by WhisperX.
type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads the segment list from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

func joinText(segments []Segment) string {
	var parts []string
	for _, segment := range segments {
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
