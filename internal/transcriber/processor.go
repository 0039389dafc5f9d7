package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"mindcare/internal/faults"
	"mindcare/internal/logging"
)

// Processing stages of a recording, as reported by /api/processed.
const (
	StageProcessing = "processing"
	StageDone       = "done"
	StageError      = "error"
)

// Processed is the per-patient payload consumers poll for. Raw carries the
// WhisperX segments so consumers can render speaker-attributed text instead
// of the flattened Text.
type Processed struct {
	Stage string          `json:"stage"`
	Text  string          `json:"text,omitempty"`
	Raw   json.RawMessage `json:"raw,omitempty"`
	Error string          `json:"error,omitempty"`
}

// DecodeSegments parses the segments attached to the payload. A missing or
// malformed Raw field decodes as nil; consumers fall back to Text.
func (p Processed) DecodeSegments() []Segment {
	if len(p.Raw) == 0 {
		return nil
	}
	var segments []Segment
	if err := json.Unmarshal(p.Raw, &segments); err != nil {
		return nil
	}
	return segments
}

// Processor runs transcriptions asynchronously, one at a time per patient,
// and persists the outcome as a JSON payload under its directory.
type Processor struct {
	service *Service
	dir     string
	logger  *slog.Logger

	mu     sync.Mutex
	active map[int64]context.CancelFunc
	done   func(patientID int64, processed Processed)
}

// NewProcessor builds a processor writing payloads into dir.
func NewProcessor(service *Service, dir string, logger *slog.Logger) *Processor {
	return &Processor{
		service: service,
		dir:     dir,
		logger:  logging.NewComponentLogger(logger, "transcriber"),
		active:  make(map[int64]context.CancelFunc),
	}
}

// OnDone registers a hook invoked after a run finishes, successfully or not.
func (p *Processor) OnDone(hook func(patientID int64, processed Processed)) {
	p.done = hook
}

// Start launches a transcription for the patient's recording. A start while
// a run is already active for the same patient is a no-op.
func (p *Processor) Start(ctx context.Context, patientID int64, audioPath string) error {
	if patientID <= 0 {
		return faults.Validation("transcripción: paciente requerido")
	}
	if _, err := os.Stat(audioPath); err != nil {
		return faults.NotFound("transcripción: grabación no encontrada: %s", audioPath)
	}

	p.mu.Lock()
	if _, running := p.active[patientID]; running {
		p.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.active[patientID] = cancel
	p.mu.Unlock()

	if err := p.write(patientID, Processed{Stage: StageProcessing}); err != nil {
		p.finish(patientID)
		return err
	}

	go p.run(runCtx, patientID, audioPath)
	return nil
}

// Stop cancels the active run for a patient, if any.
func (p *Processor) Stop(patientID int64) {
	p.mu.Lock()
	cancel, ok := p.active[patientID]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

// Active reports whether a run is in flight for the patient.
func (p *Processor) Active(patientID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[patientID]
	return ok
}

// Load reads the processed payload for a patient. Absent payloads classify
// as not_found so the API can answer 404 while processing never started.
func (p *Processor) Load(patientID int64) (Processed, error) {
	data, err := os.ReadFile(p.payloadPath(patientID))
	if err != nil {
		if os.IsNotExist(err) {
			return Processed{}, faults.NotFound("transcripción del paciente %d no disponible", patientID)
		}
		return Processed{}, faults.Wrap(faults.KindStorage, err, "lectura de transcripción procesada")
	}
	var processed Processed
	if err := json.Unmarshal(data, &processed); err != nil {
		return Processed{}, faults.Wrap(faults.KindStorage, err, "transcripción procesada corrupta")
	}
	return processed, nil
}

// Discard removes the persisted payload for a patient and stops any run.
func (p *Processor) Discard(patientID int64) error {
	p.Stop(patientID)
	if err := os.Remove(p.payloadPath(patientID)); err != nil && !os.IsNotExist(err) {
		return faults.Wrap(faults.KindStorage, err, "borrado de transcripción procesada")
	}
	return nil
}

func (p *Processor) run(ctx context.Context, patientID int64, audioPath string) {
	defer p.finish(patientID)

	outputDir := filepath.Join(p.dir, fmt.Sprintf("whisperx-%d", patientID))
	result, err := p.service.Transcribe(ctx, audioPath, outputDir)

	var processed Processed
	if err != nil {
		p.logger.Error("transcription failed",
			logging.Int64("patient_id", patientID),
			logging.Error(err))
		processed = Processed{Stage: StageError, Error: err.Error()}
	} else {
		raw, marshalErr := json.Marshal(result.Segments)
		if marshalErr != nil {
			raw = nil
		}
		processed = Processed{Stage: StageDone, Text: result.Text, Raw: raw}
	}

	if err := p.write(patientID, processed); err != nil {
		p.logger.Error("persist processed payload",
			logging.Int64("patient_id", patientID),
			logging.Error(err))
	}
	if p.done != nil {
		p.done(patientID, processed)
	}
}

func (p *Processor) finish(patientID int64) {
	p.mu.Lock()
	if cancel, ok := p.active[patientID]; ok {
		cancel()
		delete(p.active, patientID)
	}
	p.mu.Unlock()
}

func (p *Processor) write(patientID int64, processed Processed) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return faults.Wrap(faults.KindStorage, err, "creación del directorio de transcripciones")
	}
	data, err := json.Marshal(processed)
	if err != nil {
		return faults.Wrap(faults.KindStorage, err, "serialización de transcripción procesada")
	}
	path := p.payloadPath(patientID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return faults.Wrap(faults.KindStorage, err, "escritura de transcripción procesada")
	}
	if err := os.Rename(tmp, path); err != nil {
		return faults.Wrap(faults.KindStorage, err, "escritura de transcripción procesada")
	}
	return nil
}

func (p *Processor) payloadPath(patientID int64) string {
	return filepath.Join(p.dir, fmt.Sprintf("processed-%d.json", patientID))
}
