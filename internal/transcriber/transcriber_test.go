package transcriber_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mindcare/internal/faults"
	"mindcare/internal/logging"
	"mindcare/internal/transcriber"
)

func writeAudioFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "recording.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// fakeRunner pretends to be WhisperX by writing the JSON output the service
// expects to find next to the source file.
func fakeRunner(t *testing.T, payload string, captured *[]string) func(ctx context.Context, name string, args ...string) error {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) error {
		if captured != nil {
			*captured = append([]string{name}, args...)
		}
		var source, outputDir string
		for i, arg := range args {
			if arg == "--output_dir" && i+1 < len(args) {
				outputDir = args[i+1]
			}
			if strings.HasSuffix(arg, ".wav") {
				source = arg
			}
		}
		base := strings.TrimSuffix(filepath.Base(source), ".wav")
		return os.WriteFile(filepath.Join(outputDir, base+".json"), []byte(payload), 0o644)
	}
}

func TestTranscribeParsesSegments(t *testing.T) {
	dir := t.TempDir()
	source := writeAudioFixture(t, dir)

	payload := `{"segments":[
		{"text":" Hola, ¿cómo estás? ","start":0,"end":2.5,"speaker":"SPEAKER_00"},
		{"text":"Bien, gracias.","start":2.5,"end":4,"speaker":"SPEAKER_01"}]}`

	var captured []string
	svc := transcriber.NewService(transcriber.Config{Model: "large-v3-turbo", Language: "es"})
	svc.WithCommandRunner(fakeRunner(t, payload, &captured))

	result, err := svc.Transcribe(context.Background(), source, dir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("segments: want 2, got %d", len(result.Segments))
	}
	if result.Text != "Hola, ¿cómo estás? Bien, gracias." {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Segments[0].Speaker != "SPEAKER_00" {
		t.Fatalf("speaker lost: %+v", result.Segments[0])
	}

	if captured[0] != transcriber.UVXCommand {
		t.Fatalf("expected uvx invocation, got %q", captured[0])
	}
	joined := strings.Join(captured, " ")
	for _, fragment := range []string{"--model large-v3-turbo", "--language es", "--device cpu"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("arguments missing %q: %s", fragment, joined)
		}
	}
	if strings.Contains(joined, "--diarize") {
		t.Fatalf("diarization must be off without token: %s", joined)
	}
}

func TestTranscribeDiarizationArgs(t *testing.T) {
	dir := t.TempDir()
	source := writeAudioFixture(t, dir)

	var captured []string
	svc := transcriber.NewService(transcriber.Config{Diarize: true, HFToken: "hf_test"})
	svc.WithCommandRunner(fakeRunner(t, `{"segments":[]}`, &captured))

	if _, err := svc.Transcribe(context.Background(), source, dir); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	joined := strings.Join(captured, " ")
	if !strings.Contains(joined, "--diarize") || !strings.Contains(joined, "--hf_token hf_test") {
		t.Fatalf("diarization arguments missing: %s", joined)
	}
	if !strings.Contains(joined, "--model "+transcriber.DefaultModel) {
		t.Fatalf("default model not applied: %s", joined)
	}
}

func TestProcessorLifecycle(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudioFixture(t, dir)

	svc := transcriber.NewService(transcriber.Config{})
	svc.WithCommandRunner(fakeRunner(t, `{"segments":[{"text":"Hola","start":0,"end":1}]}`, nil))

	processor := transcriber.NewProcessor(svc, filepath.Join(dir, "processed"), logging.NewNop())

	finished := make(chan transcriber.Processed, 1)
	processor.OnDone(func(patientID int64, processed transcriber.Processed) {
		finished <- processed
	})

	if _, err := processor.Load(7); !faults.Is(err, faults.KindNotFound) {
		t.Fatalf("expected not_found before processing, got %v", err)
	}

	if err := processor.Start(context.Background(), 7, audio); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case processed := <-finished:
		if processed.Stage != transcriber.StageDone {
			t.Fatalf("stage: want done, got %q (%s)", processed.Stage, processed.Error)
		}
		if processed.Text != "Hola" {
			t.Fatalf("text: want Hola, got %q", processed.Text)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("transcription did not finish")
	}

	loaded, err := processor.Load(7)
	if err != nil {
		t.Fatalf("Load after done: %v", err)
	}
	if loaded.Stage != transcriber.StageDone || loaded.Text != "Hola" {
		t.Fatalf("unexpected persisted payload: %+v", loaded)
	}
	segments := loaded.DecodeSegments()
	if len(segments) != 1 || segments[0].Text != "Hola" || segments[0].End != 1 {
		t.Fatalf("segments must survive the persisted payload: %+v", segments)
	}
	if (transcriber.Processed{Raw: []byte("not json")}).DecodeSegments() != nil {
		t.Fatal("malformed raw payload must decode as nil")
	}

	if err := processor.Discard(7); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := processor.Load(7); !faults.Is(err, faults.KindNotFound) {
		t.Fatalf("expected not_found after discard, got %v", err)
	}
}

func TestProcessorDuplicateStartIsNoOp(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudioFixture(t, dir)

	release := make(chan struct{})
	var runs int
	var mu sync.Mutex

	svc := transcriber.NewService(transcriber.Config{})
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		mu.Lock()
		runs++
		mu.Unlock()
		<-release
		return ctx.Err()
	})

	processor := transcriber.NewProcessor(svc, filepath.Join(dir, "processed"), logging.NewNop())

	if err := processor.Start(context.Background(), 7, audio); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := processor.Start(context.Background(), 7, audio); err != nil {
		t.Fatalf("duplicate Start must be a no-op, got %v", err)
	}
	if !processor.Active(7) {
		t.Fatal("expected an active run")
	}
	close(release)

	deadline := time.After(5 * time.Second)
	for processor.Active(7) {
		select {
		case <-deadline:
			t.Fatal("run did not finish")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if runs != 1 {
		t.Fatalf("expected a single subprocess run, got %d", runs)
	}
}

func TestProcessorStartRequiresRecording(t *testing.T) {
	processor := transcriber.NewProcessor(transcriber.NewService(transcriber.Config{}), t.TempDir(), logging.NewNop())

	err := processor.Start(context.Background(), 7, "/no/such/file.wav")
	if !faults.Is(err, faults.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if err := processor.Start(context.Background(), 0, "x"); !faults.Is(err, faults.KindValidation) {
		t.Fatalf("expected validation for missing patient, got %v", err)
	}
}
