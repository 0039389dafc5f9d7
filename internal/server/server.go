// Package server exposes the HTTP surface of the daemon: the JSON document
// API, upload and recording endpoints, the websocket event stream, and the
// server-rendered SPA pages.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"mindcare/internal/agenda"
	"mindcare/internal/config"
	"mindcare/internal/logging"
	"mindcare/internal/notify"
	"mindcare/internal/patients"
	"mindcare/internal/recordings"
	"mindcare/internal/router"
	"mindcare/internal/sessions"
	"mindcare/internal/storage"
	"mindcare/internal/transcriber"
	"mindcare/internal/views"
)

// Server owns the HTTP listener and the application wiring behind it.
// Manager access is serialized through mu: the managers themselves are
// single-threaded by design.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	bridge    storage.Bridge
	patients  *patients.Manager
	sessions  *sessions.Manager
	agenda    *agenda.Manager
	recmgr    *recordings.Manager
	views     *views.Views
	router    *router.Router
	processor *transcriber.Processor
	notifier  notify.Service
	events    *eventHub

	mu       sync.Mutex
	lastPage views.Page

	listener net.Listener
	server   *http.Server
	stopOnce sync.Once
}

// New assembles the server: managers over the bridge, views on the router,
// and the HTTP mux.
func New(cfg *config.Config, bridge storage.Bridge, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "server"),
		bridge:   bridge,
		patients: patients.NewManager(bridge, logger),
		sessions: sessions.NewManager(bridge, logger),
		agenda:   agenda.NewManager(bridge, logger),
		notifier: notify.NewService(cfg),
		events:   newEventHub(logger),
	}

	poller := recordings.NewPoller(
		time.Duration(cfg.Transcription.PollIntervalSec)*time.Second,
		cfg.Transcription.MaxPollAttempts,
		logger,
	)
	s.recmgr = recordings.NewManager(s.sessions, poller, cfg.Security.PIN,
		cfg.Paths.RecordingsDir, logger).WithGuard(&s.mu)

	service := transcriber.NewService(transcriber.Config{
		Model:       cfg.Transcription.Model,
		Language:    cfg.Transcription.Language,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		Diarize:     cfg.Transcription.Diarize,
		HFToken:     cfg.Transcription.HFToken,
	})
	s.processor = transcriber.NewProcessor(service, cfg.Paths.RecordingsDir, logger)
	s.processor.OnDone(s.onTranscriptionDone)

	s.router = router.New(logger, "/dashboard")
	s.views = views.New(s.patients, s.sessions, s.agenda, bridge, s.router, s.capturePage, logger)
	s.views.Register()

	s.server = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/data", s.handleData)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/api/upload-recording", s.handleUploadRecording)
	mux.HandleFunc("/api/recording/", s.handleRecordingStatus)
	mux.HandleFunc("/api/delete-recording", s.handleDeleteRecording)
	mux.HandleFunc("/api/validate-pin", s.handleValidatePIN)
	mux.HandleFunc("/api/transcribe-recording", s.handleTranscribeRecording)
	mux.HandleFunc("/api/processed/", s.handleProcessed)
	mux.HandleFunc("/api/save-voice-sample", s.handleSaveVoiceSample)
	mux.HandleFunc("/api/events", s.events.handleWebsocket)

	mux.Handle("/uploads/", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(s.cfg.Paths.UploadsDir))))
	mux.Handle("/recordings/", http.StripPrefix("/recordings/",
		http.FileServer(http.Dir(s.cfg.Paths.RecordingsDir))))

	mux.HandleFunc("/", s.handlePage)

	return s.authMiddleware(mux)
}

// authMiddleware enforces the bearer token on API routes when one is
// configured. Page and static routes stay open: the SPA is a local surface.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	token := strings.TrimSpace(s.cfg.Paths.APIToken)
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			header := r.Header.Get("Authorization")
			if header != "Bearer "+token {
				s.writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start binds the listener and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Paths.Bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Paths.Bind, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down gracefully and closes event subscribers. It
// is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.events.close()
		if s.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.server.Shutdown(shutdownCtx)
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

func (s *Server) onTranscriptionDone(patientID int64, processed transcriber.Processed) {
	if processed.Stage != transcriber.StageDone {
		_ = s.notifier.NotifyError(context.Background(),
			errors.New(processed.Error), "transcripción")
		return
	}
	s.mu.Lock()
	name := ""
	if patient, err := s.patients.GetByID(patientID); err == nil {
		name = patient.Nombre
	}
	s.mu.Unlock()
	_ = s.notifier.NotifyTranscriptionReady(context.Background(), name)
	s.events.broadcast(event{Type: "transcription", PatientID: patientID})
}
