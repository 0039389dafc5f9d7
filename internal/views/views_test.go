package views_test

import (
	"strings"
	"testing"

	"mindcare/internal/agenda"
	"mindcare/internal/logging"
	"mindcare/internal/patients"
	"mindcare/internal/router"
	"mindcare/internal/sessions"
	"mindcare/internal/storage"
	"mindcare/internal/testsupport"
	"mindcare/internal/views"
)

type fixture struct {
	router   *router.Router
	views    *views.Views
	patients *patients.Manager
	sessions *sessions.Manager
	agenda   *agenda.Manager
	bridge   storage.Bridge
	pages    []views.Page
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bridge := testsupport.NewMemoryBridge() // seeded collections
	logger := logging.NewNop()

	f := &fixture{
		bridge:   bridge,
		patients: patients.NewManager(bridge, logger),
		sessions: sessions.NewManager(bridge, logger),
		agenda:   agenda.NewManager(bridge, logger),
	}
	f.router = router.New(logger, "/dashboard")
	f.views = views.New(f.patients, f.sessions, f.agenda, bridge, f.router, func(page views.Page) {
		f.pages = append(f.pages, page)
	}, logger)
	f.views.Register()
	return f
}

func (f *fixture) lastPage(t *testing.T) views.Page {
	t.Helper()
	if len(f.pages) == 0 {
		t.Fatal("no page was presented")
	}
	return f.pages[len(f.pages)-1]
}

func TestRootRedirectsToDashboard(t *testing.T) {
	f := newFixture(t)

	f.router.Navigate("/")
	page := f.lastPage(t)
	if page.Title != "Dashboard" {
		t.Fatalf("expected dashboard render, got %q", page.Title)
	}
	if f.router.Current() != "/dashboard" {
		t.Fatalf("expected history replaced with /dashboard, got %q", f.router.Current())
	}
}

func TestPatientListShowsSeedRoster(t *testing.T) {
	f := newFixture(t)

	f.router.Navigate("/pacientes")
	page := f.lastPage(t)
	for _, name := range []string{"Juan Pérez", "María López", "Carlos Ruiz"} {
		if !strings.Contains(page.Markup, name) {
			t.Fatalf("patient list missing %q", name)
		}
	}
	// Collation puts Carlos before Juan before María.
	if strings.Index(page.Markup, "Carlos") > strings.Index(page.Markup, "Juan") {
		t.Fatal("patient list not sorted by name")
	}
}

func TestPatientDetailRendersSessions(t *testing.T) {
	f := newFixture(t)

	f.router.Navigate("/pacientes/1")
	page := f.lastPage(t)
	if page.Title != "Juan Pérez" {
		t.Fatalf("expected patient title, got %q", page.Title)
	}
	if !strings.Contains(page.Markup, "/pacientes/1/sesiones/0") {
		t.Fatal("detail must link the patient's first session by relative index")
	}
	if !strings.Contains(page.Markup, "Ansiedad") {
		t.Fatal("detail missing reason for visit")
	}
}

func TestUnknownPatientFallsBackToList(t *testing.T) {
	f := newFixture(t)

	f.router.Navigate("/pacientes/999")
	if f.router.Current() != "/pacientes" {
		t.Fatalf("expected fallback to /pacientes, got %q", f.router.Current())
	}
	page := f.lastPage(t)
	if page.Title != "Pacientes" {
		t.Fatalf("expected patient list render, got %q", page.Title)
	}
}

func TestSessionDetailResolvesRelativeIndex(t *testing.T) {
	f := newFixture(t)

	f.router.Navigate("/pacientes/1/sesiones/0")
	page := f.lastPage(t)
	if !strings.Contains(page.Title, "Sesión 1") {
		t.Fatalf("expected first session title, got %q", page.Title)
	}
	if !strings.Contains(page.Markup, "Primera sesión") {
		t.Fatal("session detail missing notes")
	}
}

func TestSessionDetailOutOfRangeFallsBackToPatient(t *testing.T) {
	f := newFixture(t)

	f.router.Navigate("/pacientes/1/sesiones/5")
	if f.router.Current() != "/pacientes/1" {
		t.Fatalf("expected fallback to patient detail, got %q", f.router.Current())
	}
}

func TestAgendaRendersStatuses(t *testing.T) {
	f := newFixture(t)

	f.router.Navigate("/agenda")
	page := f.lastPage(t)
	if !strings.Contains(page.Markup, "badge-confirmada") || !strings.Contains(page.Markup, "badge-pendiente") {
		t.Fatal("agenda missing status badges")
	}
	if !strings.Contains(page.Markup, "2025-11-19 10:00") {
		t.Fatal("agenda missing seed appointment slot")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	f := newFixture(t)

	if err := f.views.SaveProfile(views.Profile{Nombre: "Dra. Gómez", Titulo: "Psicóloga clínica"}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	f.router.Navigate("/perfil-psicologo")
	page := f.lastPage(t)
	if !strings.Contains(page.Markup, "Dra. Gómez") {
		t.Fatal("profile render missing saved name")
	}
	if !strings.Contains(page.Markup, "Sin muestra de voz") {
		t.Fatal("profile must show the empty voice-sample state")
	}

	profile, err := f.views.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if profile.Titulo != "Psicóloga clínica" {
		t.Fatalf("profile round trip lost fields: %+v", profile)
	}
}

func TestSessionsListLinksRelativeIndices(t *testing.T) {
	f := newFixture(t)

	f.router.Navigate("/sesiones")
	page := f.lastPage(t)
	if !strings.Contains(page.Markup, "/pacientes/1/sesiones/0") {
		t.Fatal("sessions list missing patient 1 link")
	}
	if !strings.Contains(page.Markup, "/pacientes/2/sesiones/0") {
		t.Fatal("sessions list missing patient 2 link")
	}
}
