package workflow

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/domain"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/view"
	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/httputil"
)

// Reloader refreshes the inventory table after a successful mutation
type Reloader interface {
	Reload(ctx context.Context) view.Result
}

// Confirmer asks the user a yes/no question
type Confirmer = view.Confirmer

// Prompter asks the user how many units of a case entry to mark used.
// Returning errors.ErrPromptCancelled aborts without a mutation.
type Prompter interface {
	PromptCount(ctx context.Context, entry domain.CaseEntry, min, max int) (int, error)
}

// Option configures the dialogs
type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock overrides time.Now for "today" dates
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// validateForm runs the struct tags and returns field errors in field order
func validateForm(form interface{}) errors.ValidationErrors {
	err := httputil.Validator().Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.ValidationErrors{errors.Invalid("", err.Error())}
	}
	out := make(errors.ValidationErrors, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		out = append(out, errors.Invalid(e.Field(), httputil.FormatValidationError(e)))
	}
	return out
}

func has(errs errors.ValidationErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func intString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func int64Ptr(v int64) *int64 { return &v }
