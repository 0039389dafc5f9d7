package recordings_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mindcare/internal/faults"
	"mindcare/internal/logging"
	"mindcare/internal/recordings"
	"mindcare/internal/sessions"
	"mindcare/internal/testsupport"
	"mindcare/internal/transcriber"
)

func newFixtures(t *testing.T, pin string) (*recordings.Manager, *sessions.Manager, *sessions.Session) {
	t.Helper()
	sessionManager := sessions.NewManager(testsupport.NewEmptyBridge(), logging.NewNop())
	session, err := sessionManager.Create(sessions.CreateParams{PacienteID: 1, Fecha: "2025-11-01"})
	if err != nil {
		t.Fatalf("Create session: %v", err)
	}
	poller := recordings.NewPoller(5*time.Millisecond, 5, logging.NewNop())
	manager := recordings.NewManager(sessionManager, poller, pin, t.TempDir(), logging.NewNop())
	return manager, sessionManager, session
}

func TestAddRecording(t *testing.T) {
	manager, _, session := newFixtures(t, "")

	recording, err := manager.AddRecording(session.ID, recordings.AddParams{Audio: "/recordings/rec.wav", Duracion: 30, Remote: true})
	if err != nil {
		t.Fatalf("AddRecording: %v", err)
	}
	if recording.ID == "" {
		t.Fatal("expected generated recording id")
	}
	if recording.Fecha.IsZero() {
		t.Fatal("expected timestamp")
	}
	if len(session.Grabacion) != 1 {
		t.Fatalf("expected 1 recording on session, got %d", len(session.Grabacion))
	}

	if _, err := manager.AddRecording(session.ID, recordings.AddParams{}); !faults.Is(err, faults.KindValidation) {
		t.Fatalf("expected validation for missing audio, got %v", err)
	}
	if _, err := manager.AddRecording(999, recordings.AddParams{Audio: "x"}); !faults.Is(err, faults.KindNotFound) {
		t.Fatalf("expected not_found for unknown session, got %v", err)
	}
}

func TestDeleteRecordingsPINGate(t *testing.T) {
	manager, _, session := newFixtures(t, "1234")

	if _, err := manager.AddRecording(session.ID, recordings.AddParams{Audio: "x"}); err != nil {
		t.Fatalf("AddRecording: %v", err)
	}

	err := manager.DeleteRecordings(session.ID, "0000")
	if !faults.Is(err, faults.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if len(session.Grabacion) != 1 {
		t.Fatal("failed delete must not clear recordings")
	}

	if err := manager.DeleteRecordings(session.ID, "1234"); err != nil {
		t.Fatalf("DeleteRecordings: %v", err)
	}
	if len(session.Grabacion) != 0 {
		t.Fatalf("expected cleared list, got %d", len(session.Grabacion))
	}
}

func TestCheckExistsFindsStoredRecording(t *testing.T) {
	sessionManager := sessions.NewManager(testsupport.NewEmptyBridge(), logging.NewNop())
	dir := t.TempDir()
	manager := recordings.NewManager(sessionManager, nil, "", dir, logging.NewNop())

	if _, exists := manager.CheckExists(1); exists {
		t.Fatal("expected no recording initially")
	}
	if err := os.WriteFile(filepath.Join(dir, recordings.FileName(1, ".wav")), []byte("x"), 0o644); err != nil {
		t.Fatalf("write recording: %v", err)
	}

	name, exists := manager.CheckExists(1)
	if !exists || name != "recording-1.wav" {
		t.Fatalf("unexpected lookup: name=%q exists=%v", name, exists)
	}
	if _, exists := manager.CheckExists(2); exists {
		t.Fatal("recording of one patient must not match another")
	}
}

func TestAttachToPatient(t *testing.T) {
	manager, sessionManager, session := newFixtures(t, "")

	// With an existing session, the capture lands on it.
	recording, err := manager.AttachToPatient(session.PacienteID, recordings.AddParams{Audio: "/recordings/recording-1.wav", Remote: true})
	if err != nil {
		t.Fatalf("AttachToPatient: %v", err)
	}
	if len(session.Grabacion) != 1 || session.Grabacion[0].ID != recording.ID {
		t.Fatalf("capture not attached to existing session: %+v", session.Grabacion)
	}

	// A patient without sessions gets one created for the capture.
	if _, err := manager.AttachToPatient(42, recordings.AddParams{Audio: "/recordings/recording-42.wav"}); err != nil {
		t.Fatalf("AttachToPatient new session: %v", err)
	}
	created := sessionManager.ByPatient(42)
	if len(created) != 1 || len(created[0].Grabacion) != 1 {
		t.Fatalf("expected one session with one capture, got %+v", created)
	}
	if created[0].Fecha == "" {
		t.Fatal("created session must carry a date")
	}
}

func TestDeleteForPatientGatesAndClears(t *testing.T) {
	manager, sessionManager, session := newFixtures(t, "1234")

	second, err := sessionManager.Create(sessions.CreateParams{PacienteID: session.PacienteID, Fecha: "2025-11-08"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, id := range []int64{session.ID, second.ID} {
		if _, err := manager.AddRecording(id, recordings.AddParams{Audio: "x"}); err != nil {
			t.Fatalf("AddRecording: %v", err)
		}
	}

	if err := manager.DeleteForPatient(session.PacienteID, "0000"); !faults.Is(err, faults.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if len(session.Grabacion) != 1 {
		t.Fatal("failed delete must not clear recordings")
	}

	if err := manager.DeleteForPatient(session.PacienteID, "1234"); err != nil {
		t.Fatalf("DeleteForPatient: %v", err)
	}
	if len(session.Grabacion) != 0 || len(second.Grabacion) != 0 {
		t.Fatal("expected every session of the patient cleared")
	}
}

func TestStartPatientPollNeedsCapture(t *testing.T) {
	manager, _, session := newFixtures(t, "")

	fetcher := &stagedFetcher{ready: 1, text: "Hola"}
	if _, err := manager.StartPatientPoll(context.Background(), session.PacienteID, fetcher); !faults.Is(err, faults.KindNotFound) {
		t.Fatalf("expected not_found without captures, got %v", err)
	}

	if _, err := manager.AddRecording(session.ID, recordings.AddParams{Audio: "x"}); err != nil {
		t.Fatalf("AddRecording: %v", err)
	}
	token, err := manager.StartPatientPoll(context.Background(), session.PacienteID, fetcher)
	if err != nil {
		t.Fatalf("StartPatientPoll: %v", err)
	}
	select {
	case <-token.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not finish")
	}
	if got := session.Grabacion[0].Transcripcion; got != "Hola" {
		t.Fatalf("transcript not applied: %q", got)
	}
}

func TestCheckPINPermissiveWhenUnset(t *testing.T) {
	manager, _, _ := newFixtures(t, "")
	if err := manager.CheckPIN("anything"); err != nil {
		t.Fatalf("unset PIN must accept any submission, got %v", err)
	}

	gated, _, _ := newFixtures(t, "1234")
	if err := gated.CheckPIN(""); !faults.Is(err, faults.KindAuthorization) {
		t.Fatalf("expected authorization error for empty submission, got %v", err)
	}
}

// stagedFetcher reports processing for a fixed number of calls, then done.
type stagedFetcher struct {
	mu       sync.Mutex
	calls    int
	ready    int
	text     string
	segments []transcriber.Segment
	absent   bool
}

func (f *stagedFetcher) FetchProcessed(ctx context.Context, patientID int64) (recordings.Processed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.absent {
		return recordings.Processed{}, faults.NotFound("no disponible")
	}
	if f.calls < f.ready {
		return recordings.Processed{Stage: recordings.StageProcessing}, nil
	}
	return recordings.Processed{Stage: recordings.StageDone, Text: f.text, Segments: f.segments}, nil
}

func (f *stagedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestTranscriptionPollAppliesResult(t *testing.T) {
	manager, _, session := newFixtures(t, "")

	recording, err := manager.AddRecording(session.ID, recordings.AddParams{Audio: "/recordings/rec.wav"})
	if err != nil {
		t.Fatalf("AddRecording: %v", err)
	}

	fetcher := &stagedFetcher{ready: 3, text: "Hola"}
	token, err := manager.StartTranscriptionPoll(context.Background(), session.ID, recording.ID, fetcher)
	if err != nil {
		t.Fatalf("StartTranscriptionPoll: %v", err)
	}

	select {
	case <-token.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not finish")
	}

	got := session.Grabacion[0]
	if got.Processing {
		t.Fatal("processing flag must clear on completion")
	}
	if got.Transcripcion != "Hola" {
		t.Fatalf("transcription not applied: %q", got.Transcripcion)
	}
	if fetcher.callCount() != 3 {
		t.Fatalf("expected 3 probe calls, got %d", fetcher.callCount())
	}
}

func TestTranscriptionPollRendersDiarizedSegments(t *testing.T) {
	manager, _, session := newFixtures(t, "")

	recording, err := manager.AddRecording(session.ID, recordings.AddParams{Audio: "/recordings/rec.wav"})
	if err != nil {
		t.Fatalf("AddRecording: %v", err)
	}

	fetcher := &stagedFetcher{
		ready: 1,
		text:  "Hola. Bien, gracias.",
		segments: []transcriber.Segment{
			{Text: "Hola.", Start: 0, End: 1.2, Speaker: "SPEAKER_00"},
			{Text: "Bien, gracias.", Start: 1.2, End: 2.4, Speaker: "SPEAKER_01"},
		},
	}
	token, err := manager.StartTranscriptionPoll(context.Background(), session.ID, recording.ID, fetcher)
	if err != nil {
		t.Fatalf("StartTranscriptionPoll: %v", err)
	}
	select {
	case <-token.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not finish")
	}

	want := "[0.0s - 1.2s] SPEAKER_00: Hola.\n[1.2s - 2.4s] SPEAKER_01: Bien, gracias."
	if got := session.Grabacion[0].Transcripcion; got != want {
		t.Fatalf("diarized transcript not applied:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestProcessorFetcherCarriesSegments(t *testing.T) {
	dir := t.TempDir()
	processor := transcriber.NewProcessor(
		transcriber.NewService(transcriber.Config{}), dir, logging.NewNop())
	fetcher := recordings.ProcessorFetcher{Processor: processor}

	if _, err := fetcher.FetchProcessed(context.Background(), 7); !faults.Is(err, faults.KindNotFound) {
		t.Fatalf("expected not_found before processing, got %v", err)
	}

	segments := []transcriber.Segment{
		{Text: "Hola.", Start: 0, End: 1.2, Speaker: "SPEAKER_00"},
		{Text: "Bien, gracias.", Start: 1.2, End: 2.4, Speaker: "SPEAKER_01"},
	}
	raw, err := json.Marshal(segments)
	if err != nil {
		t.Fatalf("marshal segments: %v", err)
	}
	payload, err := json.Marshal(transcriber.Processed{
		Stage: transcriber.StageDone,
		Text:  "Hola. Bien, gracias.",
		Raw:   raw,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "processed-7.json"), payload, 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	processed, err := fetcher.FetchProcessed(context.Background(), 7)
	if err != nil {
		t.Fatalf("FetchProcessed: %v", err)
	}
	if processed.Stage != recordings.StageDone {
		t.Fatalf("unexpected stage: %q", processed.Stage)
	}
	if len(processed.Segments) != 2 || processed.Segments[1].Speaker != "SPEAKER_01" {
		t.Fatalf("segments not carried: %+v", processed.Segments)
	}
}

func TestTranscriptionPollBoundedAttempts(t *testing.T) {
	manager, _, session := newFixtures(t, "")

	recording, err := manager.AddRecording(session.ID, recordings.AddParams{Audio: "x"})
	if err != nil {
		t.Fatalf("AddRecording: %v", err)
	}

	fetcher := &stagedFetcher{absent: true}
	token, err := manager.StartTranscriptionPoll(context.Background(), session.ID, recording.ID, fetcher)
	if err != nil {
		t.Fatalf("StartTranscriptionPoll: %v", err)
	}

	select {
	case <-token.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll did not stop at the attempt cap")
	}
	if got := fetcher.callCount(); got != 5 {
		t.Fatalf("expected exactly maxAttempts probes, got %d", got)
	}
}

func TestDuplicatePollStartIsNoOp(t *testing.T) {
	poller := recordings.NewPoller(time.Hour, 40, logging.NewNop())

	var calls int
	var mu sync.Mutex
	check := func(ctx context.Context) (bool, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return false, nil
	}

	first, started := poller.Start(context.Background(), 7, check)
	if !started {
		t.Fatal("first start must launch")
	}
	second, started := poller.Start(context.Background(), 7, check)
	if started {
		t.Fatal("duplicate start must be a no-op")
	}
	if first != second {
		t.Fatal("duplicate start must return the existing token")
	}

	first.Stop()
	select {
	case <-first.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stopped poll did not exit")
	}
	if poller.Active(7) {
		t.Fatal("poll must deregister on exit")
	}
}

func TestExtractProcessedTextMergesSpeakers(t *testing.T) {
	segments := []transcriber.Segment{
		{Text: "Hola.", Start: 0, End: 1.2, Speaker: "SPEAKER_00"},
		{Text: "¿Cómo estás?", Start: 1.2, End: 2.4, Speaker: "SPEAKER_00"},
		{Text: "Bien, gracias.", Start: 2.4, End: 3.9, Speaker: "SPEAKER_01"},
		{Text: "  ", Start: 3.9, End: 4.0, Speaker: "SPEAKER_01"},
		{Text: "Me alegro.", Start: 4.0, End: 5.0, Speaker: "SPEAKER_00"},
	}

	got := recordings.ExtractProcessedText(segments)
	want := "[0.0s - 2.4s] SPEAKER_00: Hola. ¿Cómo estás?\n" +
		"[2.4s - 3.9s] SPEAKER_01: Bien, gracias.\n" +
		"[4.0s - 5.0s] SPEAKER_00: Me alegro."
	if got != want {
		t.Fatalf("unexpected rendering:\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestExtractProcessedTextWithoutDiarization(t *testing.T) {
	segments := []transcriber.Segment{
		{Text: "Primera frase.", Start: 0, End: 2},
		{Text: "Segunda frase.", Start: 2, End: 4},
	}
	got := recordings.ExtractProcessedText(segments)
	want := "[0.0s - 4.0s] Primera frase. Segunda frase."
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
	if recordings.ExtractProcessedText(nil) != "" {
		t.Fatal("empty input must render empty")
	}
}
