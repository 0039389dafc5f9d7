package views

import (
	"encoding/json"
	"strings"

	"mindcare/internal/faults"
	"mindcare/internal/router"
	"mindcare/internal/storage"
	"mindcare/internal/ui"
)

// Profile is the clinician's own record, stored as one document under the
// profile key.
type Profile struct {
	Nombre      string `json:"nombre"`
	Titulo      string `json:"titulo"`
	Colegiado   string `json:"colegiado"`
	Contacto    string `json:"contacto"`
	Bio         string `json:"bio"`
	VoiceSample string `json:"voiceSample,omitempty"`
}

// LoadProfile reads the stored profile; a missing key yields a zero profile.
func (v *Views) LoadProfile() (Profile, error) {
	var profile Profile
	data, ok, err := v.bridge.Get(storage.KeyProfile)
	if err != nil {
		return profile, faults.Wrap(faults.KindStorage, err, "lectura del perfil")
	}
	if !ok {
		return profile, nil
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, faults.Wrap(faults.KindStorage, err, "perfil corrupto")
	}
	return profile, nil
}

// SaveProfile persists the profile document.
func (v *Views) SaveProfile(profile Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return faults.Wrap(faults.KindStorage, err, "serialización del perfil")
	}
	if err := v.bridge.Set(storage.KeyProfile, data); err != nil {
		return faults.Wrap(faults.KindStorage, err, "guardado del perfil")
	}
	return nil
}

func (v *Views) renderProfile(path string, params router.Params) error {
	profile, err := v.LoadProfile()
	if err != nil {
		return err
	}

	var detail strings.Builder
	detail.WriteString(ui.Field("Nombre", profile.Nombre))
	detail.WriteString(ui.Field("Título", profile.Titulo))
	detail.WriteString(ui.Field("Nº colegiado", profile.Colegiado))
	detail.WriteString(ui.Field("Contacto", profile.Contacto))
	detail.WriteString(ui.Field("Presentación", profile.Bio))

	voice := ui.EmptyState("Sin muestra de voz")
	if profile.VoiceSample != "" {
		voice = ui.Field("Muestra de voz", profile.VoiceSample)
	}

	v.present(Page{
		Path:   path,
		Title:  "Perfil",
		Markup: ui.Card("Perfil del psicólogo", detail.String()) + ui.Card("Identificación de voz", voice),
	})
	return nil
}
