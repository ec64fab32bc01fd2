package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"finsight/internal/core"
)

// HX-Trigger event names the page script and templates listen for.
const (
	eventNotification = "show-notification"
	eventItemsChanged = "items:changed"
	eventBudget       = "budget:updated"
	eventFormReset    = "form:reset"
)

// HTMXResponse collects the status, HX-Trigger events and HTML fragment of
// one HTMX reply.
type HTMXResponse struct {
	status   int
	triggers map[string]any
	html     string
}

// NewHTMXResponse starts a 200 response with no events.
func NewHTMXResponse() *HTMXResponse {
	return &HTMXResponse{status: http.StatusOK, triggers: make(map[string]any)}
}

func (b *HTMXResponse) Status(code int) *HTMXResponse {
	b.status = code
	return b
}

// Trigger adds an event to HX-Trigger. A second call with the same name
// replaces the payload.
func (b *HTMXResponse) Trigger(name string, data any) *HTMXResponse {
	b.triggers[name] = data
	return b
}

func (b *HTMXResponse) TriggerItemsChanged(count int) *HTMXResponse {
	return b.Trigger(eventItemsChanged, map[string]int{"count": count})
}

func (b *HTMXResponse) TriggerBudgetUpdated(goal string) *HTMXResponse {
	return b.Trigger(eventBudget, map[string]string{"goal": goal})
}

// TriggerFormReset clears the add-item form after a successful add.
func (b *HTMXResponse) TriggerFormReset() *HTMXResponse {
	return b.Trigger(eventFormReset, struct{}{})
}

// Notify shows n as a toast. Warnings and errors stay on screen longer.
func (b *HTMXResponse) Notify(n core.Notice) *HTMXResponse {
	duration := 3000
	if n.Level == core.NoticeWarning || n.Level == core.NoticeError {
		duration = 6000
	}
	return b.Trigger(eventNotification, map[string]any{
		"type":     string(n.Level),
		"message":  n.Message,
		"duration": duration,
	})
}

// HTML sets the fragment htmx swaps into the page.
func (b *HTMXResponse) HTML(fragment string) *HTMXResponse {
	b.html = fragment
	return b
}

func (b *HTMXResponse) Write(w http.ResponseWriter) {
	if b.html != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	if len(b.triggers) > 0 {
		if payload, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(payload))
		}
	}
	w.WriteHeader(b.status)
	if b.html != "" {
		_, _ = w.Write([]byte(b.html))
	}
}

// ErrorFragment answers with status and an escaped inline error div.
func ErrorFragment(status int, message string) *HTMXResponse {
	return NewHTMXResponse().
		Status(status).
		HTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

// Fail is ErrorFragment plus an error toast carrying the same message.
// htmx does not swap 4xx and 5xx bodies by default, so the toast is what
// the user sees.
func Fail(status int, message string) *HTMXResponse {
	return ErrorFragment(status, message).Notify(core.ErrorNotice(message))
}
