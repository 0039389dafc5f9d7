package ui

// PromptResult is the single outcome of a modal prompt: either the confirmed
// field values or a cancellation.
type PromptResult struct {
	Confirmed bool
	Values    map[string]string
}

// Prompt is a modal interaction that delivers its result exactly once.
// Confirm and Cancel after the first delivery are no-ops, so double-clicks
// and close-after-confirm races cannot produce a second outcome.
type Prompt struct {
	deliver func(PromptResult)
	done    bool
}

// NewPrompt binds the prompt to its result sink.
func NewPrompt(deliver func(PromptResult)) *Prompt {
	return &Prompt{deliver: deliver}
}

// Confirm delivers the collected values. Reports whether this call was the
// one that resolved the prompt.
func (p *Prompt) Confirm(values map[string]string) bool {
	if p.done {
		return false
	}
	p.done = true
	p.deliver(PromptResult{Confirmed: true, Values: values})
	return true
}

// Cancel delivers a cancellation.
func (p *Prompt) Cancel() bool {
	if p.done {
		return false
	}
	p.done = true
	p.deliver(PromptResult{Confirmed: false})
	return true
}

// Resolved reports whether the prompt already delivered its result.
func (p *Prompt) Resolved() bool {
	return p.done
}
