// Package views holds the screen controllers of the single-page surface.
// Each controller reads the entity managers, renders its markup through the
// ui helpers, and is registered on the router under its URL pattern.
package views

import (
	"log/slog"
	"strconv"

	"mindcare/internal/agenda"
	"mindcare/internal/faults"
	"mindcare/internal/logging"
	"mindcare/internal/patients"
	"mindcare/internal/router"
	"mindcare/internal/sessions"
	"mindcare/internal/storage"
)

// Page is a rendered screen handed to the presenter.
type Page struct {
	Path   string
	Title  string
	Markup string
}

// Presenter receives rendered pages. The HTTP server wraps them in the page
// shell; tests capture them directly.
type Presenter func(Page)

// Views wires the screen controllers to their managers.
type Views struct {
	patients *patients.Manager
	sessions *sessions.Manager
	agenda   *agenda.Manager
	bridge   storage.Bridge
	router   *router.Router
	present  Presenter
	logger   *slog.Logger
}

// New builds the view layer. present must not be nil.
func New(
	patientManager *patients.Manager,
	sessionManager *sessions.Manager,
	agendaManager *agenda.Manager,
	bridge storage.Bridge,
	r *router.Router,
	present Presenter,
	logger *slog.Logger,
) *Views {
	return &Views{
		patients: patientManager,
		sessions: sessionManager,
		agenda:   agendaManager,
		bridge:   bridge,
		router:   r,
		present:  present,
		logger:   logging.NewComponentLogger(logger, "views"),
	}
}

// Register binds every screen to its route. Registration order decides match
// priority, so the root redirect goes first and literal patterns precede
// their capture siblings.
func (v *Views) Register() {
	v.router.Register("/", v.renderRoot)
	v.router.Register("/dashboard", v.renderDashboard)
	v.router.Register("/pacientes", v.renderPatientList)
	v.router.Register("/pacientes/:id", v.renderPatientDetail)
	v.router.Register("/pacientes/:id/sesiones/:index", v.renderSessionDetail)
	v.router.Register("/agenda", v.renderAgenda)
	v.router.Register("/sesiones", v.renderSessionsList)
	v.router.Register("/perfil-psicologo", v.renderProfile)
}

// renderRoot redirects the bare root to the dashboard.
func (v *Views) renderRoot(path string, params router.Params) error {
	v.router.Replace("/dashboard")
	return nil
}

// fallbackOnNotFound redirects to a safe route when a parameter does not
// resolve, instead of bubbling the error into the router's default fallback.
func (v *Views) fallbackOnNotFound(err error, safePath string) error {
	if faults.Is(err, faults.KindNotFound) {
		v.logger.Warn("view target missing, redirecting",
			logging.String("safe_path", safePath),
			logging.Error(err))
		v.router.Replace(safePath)
		return nil
	}
	return err
}

func parseID(params router.Params, name string) (int64, error) {
	raw := params[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, faults.NotFound("identificador inválido: %q", raw)
	}
	return id, nil
}

func parseIndex(params router.Params, name string) (int, error) {
	raw := params[name]
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, faults.NotFound("índice inválido: %q", raw)
	}
	return index, nil
}
