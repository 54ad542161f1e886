package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/ficroll/internal/api"
	"github.com/pders01/ficroll/internal/debuglog"
)

type FormState int

const (
	FormIdle FormState = iota
	FormSubmitting
	FormResult
	FormError
)

func (s FormState) String() string {
	switch s {
	case FormIdle:
		return "idle"
	case FormSubmitting:
		return "submitting"
	case FormResult:
		return "result"
	case FormError:
		return "error"
	default:
		return "unknown"
	}
}

const MsgValidation = "Please enter at least one tag, fandom, or category."

// Generator is the backend call behind the form.
type Generator interface {
	Generate(ctx context.Context, c api.Criteria) (*api.Work, error)
}

// ParseTags splits the comma-separated tags field, trimming and dropping
// empty entries while keeping order.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// FormController runs the filter form: validate, submit, show the outcome.
type FormController struct {
	view         View
	client       Generator
	autocomplete *AutocompleteController
	timeout      time.Duration
	state        FormState
	result       *api.Work
}

func NewFormController(view View, client Generator, ac *AutocompleteController, timeout time.Duration) *FormController {
	return &FormController{view: view, client: client, autocomplete: ac, timeout: timeout}
}

func (f *FormController) State() FormState { return f.state }

// Result is the last work shown, or nil.
func (f *FormController) Result() *api.Work { return f.result }

// Submit validates the form and starts the request. It returns nil when
// nothing was sent: a submission already in flight, or a validation error.
func (f *FormController) Submit() tea.Cmd {
	if f.state == FormSubmitting {
		return nil
	}

	criteria := api.Criteria{
		Tags:       ParseTags(f.view.TagsValue()),
		Categories: f.view.SelectedCategories(),
		Fandom:     f.view.FandomValue(),
	}
	if criteria.Categories == nil {
		criteria.Categories = []string{}
	}
	if len(criteria.Tags) == 0 && len(criteria.Categories) == 0 && criteria.Fandom == "" {
		f.state = FormError
		f.view.HideResult()
		f.view.ShowError(MsgValidation)
		return nil
	}

	f.state = FormSubmitting
	f.view.SetSubmitEnabled(false)
	f.view.SetLoading(true)
	f.view.HideResult()
	f.view.HideError()
	if f.autocomplete != nil {
		f.autocomplete.Suppress()
	}

	return generateCmd(f.client, criteria, f.timeout)
}

// HandleResult applies a finished request. The submit button, loading
// indicator and suppression flag are restored whatever the outcome.
func (f *FormController) HandleResult(msg generateResultMsg) {
	defer func() {
		f.view.SetSubmitEnabled(true)
		f.view.SetLoading(false)
		if f.autocomplete != nil {
			f.autocomplete.Unsuppress()
		}
	}()

	if msg.err != nil {
		debuglog.Warnf("generate failed: %v", msg.err)
		f.state = FormError
		f.result = nil
		f.view.ShowError(failureMessage(msg.err))
		return
	}

	f.state = FormResult
	f.result = msg.work
	f.view.ShowResult(msg.work)
}

// clientContexts are the prefixes api.Client wraps transport and decode
// errors with; the panel shows the cause only.
var clientContexts = []string{"contacting backend: ", "reading response: ", "decoding response: "}

// failureMessage is the text of a failed generate. A backend answer without
// an error field falls back to the generic message.
func failureMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message == "" {
			return api.GenericFailure
		}
		return apiErr.Message
	}
	msg := err.Error()
	for _, prefix := range clientContexts {
		msg = strings.TrimPrefix(msg, prefix)
	}
	if msg == "" {
		return api.GenericFailure
	}
	return msg
}

// Dismiss clears the result or error panel and returns to Idle. The inputs
// keep their values.
func (f *FormController) Dismiss() {
	if f.state == FormSubmitting {
		return
	}
	f.state = FormIdle
	f.result = nil
	f.view.HideResult()
	f.view.HideError()
}
