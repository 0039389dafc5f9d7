package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"mindcare/internal/faults"
	"mindcare/internal/logging"
	"mindcare/internal/recordings"
	"mindcare/internal/wav"
)

const maxUploadBytes = 64 << 20

// handleData serves the whole-document JSON store: GET returns every stored
// key as one object, POST replaces the stored keys with the object's entries.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.mu.Lock()
		defer s.mu.Unlock()

		keys, err := s.bridge.Keys()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		document := make(map[string]json.RawMessage, len(keys))
		for _, key := range keys {
			data, ok, err := s.bridge.Get(key)
			if err != nil {
				s.writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if ok {
				document[key] = json.RawMessage(data)
			}
		}
		s.writeJSON(w, http.StatusOK, document)

	case http.MethodPost:
		var document map[string]json.RawMessage
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&document); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON document")
			return
		}

		entries := make(map[string][]byte, len(document))
		for key, value := range document {
			entries[key] = value
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		// One atomic write: a failed replacement must not leave the document
		// half swapped.
		if err := s.bridge.SetAll(entries); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.reloadManagers()
		s.events.broadcast(event{Type: "data"})
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// reloadManagers re-reads the collections after an external write through
// /api/data, so page renders see the updated snapshot. Callers hold mu.
func (s *Server) reloadManagers() {
	s.patients.Reload()
	s.sessions.Reload()
	s.agenda.Reload()
}

// handleUpload accepts a multipart file and stores it under the uploads
// directory with a generated name.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	filename := uuid.NewString() + filepath.Ext(header.Filename)
	if err := s.saveFile(file, filepath.Join(s.cfg.Paths.UploadsDir, filename)); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"filename": filename,
		"url":      "/uploads/" + filename,
	})
}

// handleUploadRecording stores one recording per patient. A second upload
// for the same patient conflicts until the first is deleted.
func (s *Server) handleUploadRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	patientID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("patientId")), 10, 64)
	if err != nil || patientID <= 0 {
		s.writeError(w, http.StatusBadRequest, "missing patientId")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	if _, exists := s.recmgr.CheckExists(patientID); exists {
		s.writeError(w, http.StatusConflict, "recording already exists for patient")
		return
	}

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".wav"
	}

	var body io.Reader = file
	if strings.EqualFold(ext, ".wav") {
		head := make([]byte, 44)
		n, err := io.ReadFull(file, head)
		if err != nil && err != io.ErrUnexpectedEOF {
			s.writeError(w, http.StatusBadRequest, "unreadable audio payload")
			return
		}
		if _, err := wav.ParseHeader(head[:n]); err != nil {
			s.writeError(w, http.StatusBadRequest, "not a valid WAV recording")
			return
		}
		body = io.MultiReader(bytes.NewReader(head[:n]), file)
	}

	name := recordings.FileName(patientID, ext)
	if err := s.saveFile(body, filepath.Join(s.cfg.Paths.RecordingsDir, name)); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	_, err = s.recmgr.AttachToPatient(patientID, recordings.AddParams{
		Audio:  "/recordings/" + name,
		Remote: true,
	})
	s.mu.Unlock()
	if err != nil {
		os.Remove(filepath.Join(s.cfg.Paths.RecordingsDir, name))
		s.writeError(w, faults.HTTPStatus(err), err.Error())
		return
	}

	s.events.broadcast(event{Type: "recording", PatientID: patientID})
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"path": "/recordings/" + name,
	})
}

// handleRecordingStatus reports whether a recording exists for a patient.
func (s *Server) handleRecordingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	patientID, ok := trailingID(r.URL.Path, "/api/recording/")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	name, exists := s.recmgr.CheckExists(patientID)
	response := map[string]any{"exists": exists}
	if exists {
		response["path"] = "/recordings/" + name
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleDeleteRecording removes a patient's recording. The submitted PIN
// must match the configured one; with no PIN configured any value passes.
func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload struct {
		PatientID int64  `json:"patientId"`
		PIN       string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PatientID <= 0 {
		s.writeError(w, http.StatusBadRequest, "missing patientId")
		return
	}
	s.mu.Lock()
	err := s.recmgr.DeleteForPatient(payload.PatientID, payload.PIN)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, faults.HTTPStatus(err), err.Error())
		return
	}

	if name, exists := s.recmgr.CheckExists(payload.PatientID); exists {
		if err := os.Remove(filepath.Join(s.cfg.Paths.RecordingsDir, name)); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if err := s.processor.Discard(payload.PatientID); err != nil {
		s.logger.Warn("discard processed payload", logging.Error(err))
	}
	s.events.broadcast(event{Type: "recording", PatientID: payload.PatientID})
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleValidatePIN checks a submitted PIN. With no PIN configured every
// submission validates, so a fresh install is never locked out.
func (s *Server) handleValidatePIN(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{
		"ok": s.recmgr.CheckPIN(payload.PIN) == nil,
	})
}

// handleTranscribeRecording kicks off transcription of a patient's recording
// asynchronously. Processing state is polled through /api/processed.
func (s *Server) handleTranscribeRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.cfg.Transcription.Enabled {
		s.writeError(w, http.StatusServiceUnavailable, "transcription disabled")
		return
	}
	var payload struct {
		PatientID int64 `json:"patientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PatientID <= 0 {
		s.writeError(w, http.StatusBadRequest, "missing patientId")
		return
	}
	name, exists := s.recmgr.CheckExists(payload.PatientID)
	if !exists {
		s.writeError(w, http.StatusNotFound, "no recording for patient")
		return
	}
	audioPath := filepath.Join(s.cfg.Paths.RecordingsDir, name)

	// The run and its poll outlive the request; both get the background
	// context so finishing the response does not cancel them.
	if err := s.processor.Start(context.Background(), payload.PatientID, audioPath); err != nil {
		s.writeError(w, faults.HTTPStatus(err), err.Error())
		return
	}
	s.startTranscriptPoll(payload.PatientID, "/recordings/"+name)

	s.writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

// startTranscriptPoll polls the processor until the patient's transcription
// is ready and lands it on the session's recording. Recordings written
// through the document API have no session attachment yet; those get one
// before the poll starts.
func (s *Server) startTranscriptPoll(patientID int64, audioRef string) {
	fetcher := recordings.ProcessorFetcher{Processor: s.processor}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.recmgr.StartPatientPoll(context.Background(), patientID, fetcher)
	if faults.Is(err, faults.KindNotFound) {
		if _, attachErr := s.recmgr.AttachToPatient(patientID, recordings.AddParams{
			Audio:  audioRef,
			Remote: true,
		}); attachErr == nil {
			_, err = s.recmgr.StartPatientPoll(context.Background(), patientID, fetcher)
		}
	}
	if err != nil {
		s.logger.Warn("start transcription poll",
			logging.Int64("patient_id", patientID),
			logging.Error(err))
	}
}

// handleProcessed returns the processing state of a patient's transcription.
func (s *Server) handleProcessed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	patientID, ok := trailingID(r.URL.Path, "/api/processed/")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid patient id")
		return
	}
	processed, err := s.processor.Load(patientID)
	if err != nil {
		s.writeError(w, faults.HTTPStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, processed)
}

// handleSaveVoiceSample stores the clinician's voice sample used as the
// diarization reference, and records it on the profile.
func (s *Server) handleSaveVoiceSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".wav"
	}
	name := "voice-sample" + ext
	if err := s.saveFile(file, filepath.Join(s.cfg.Paths.RecordingsDir, name)); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	profile, err := s.views.LoadProfile()
	if err == nil {
		profile.VoiceSample = "/recordings/" + name
		if err := s.views.SaveProfile(profile); err != nil {
			s.logger.Warn("save profile voice sample", logging.Error(err))
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"path": "/recordings/" + name,
	})
}

func (s *Server) saveFile(src io.Reader, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, io.LimitReader(src, maxUploadBytes)); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}

func trailingID(path, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
