package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/peterkuimelis/tcgodds/internal/sim"
)

// MaxSimulations bounds a single request unless the caller sets its own limit.
const MaxSimulations = 1_000_000

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so errors match what the client sent.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks the request shape. Failures are returned as *sim.ConfigError
// so every surface maps them the same way.
func (r *SimulateRequest) Validate() error {
	return r.ValidateWithLimit(MaxSimulations)
}

// ValidateWithLimit is Validate with a custom cap on simulations (0 = no cap).
func (r *SimulateRequest) ValidateWithLimit(maxSimulations int) error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &sim.ConfigError{Field: fieldPath(fe), Reason: describe(fe)}
		}
		return fmt.Errorf("validate request: %w", err)
	}
	if maxSimulations > 0 && r.Simulations > maxSimulations {
		return &sim.ConfigError{Field: "simulations", Reason: fmt.Sprintf("at most %d per request, got %d", maxSimulations, r.Simulations)}
	}
	return nil
}

// fieldPath strips the struct name from the namespace: "SimulateRequest.rules[0][1].min_count"
// becomes "rules[0][1].min_count".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
