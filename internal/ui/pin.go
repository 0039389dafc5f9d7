package ui

import (
	"fmt"
	"strings"
)

// PINPrompt renders and validates the segmented PIN dialog: one single-digit
// input per position, with auto-advance on entry and backspace-retreat
// attributes picked up by the page script.
type PINPrompt struct {
	Length int
}

// NewPINPrompt builds a prompt for a code of the given length.
func NewPINPrompt(length int) *PINPrompt {
	if length <= 0 {
		length = 4
	}
	return &PINPrompt{Length: length}
}

// Markup renders the modal body with the per-digit inputs.
func (p *PINPrompt) Markup() string {
	var b strings.Builder
	b.WriteString(`<div class="pin-inputs">`)
	for i := 0; i < p.Length; i++ {
		fmt.Fprintf(&b,
			`<input class="pin-digit" type="tel" inputmode="numeric" maxlength="1" data-index="%d" data-advance="next" data-backspace="prev">`,
			i)
	}
	b.WriteString(`</div>`)
	b.WriteString(`<p class="pin-error" hidden></p>`)
	return Modal("pin-prompt", "Introduce el PIN", b.String(), "Validar")
}

// Validate checks the submitted digits for completeness. It returns the
// joined code when every position holds exactly one digit; otherwise it
// returns the empty positions so the dialog can highlight them and stay open.
func (p *PINPrompt) Validate(digits []string) (code string, missing []int) {
	for i := 0; i < p.Length; i++ {
		var digit string
		if i < len(digits) {
			digit = strings.TrimSpace(digits[i])
		}
		if len(digit) != 1 || digit[0] < '0' || digit[0] > '9' {
			missing = append(missing, i)
			continue
		}
		code += digit
	}
	if len(missing) > 0 {
		return "", missing
	}
	return code, nil
}
