package loans

import (
	"fmt"
)

// ValidationError reports a malformed or out-of-range request field.
type ValidationError struct {
	Campo   string
	Mensaje string
}

func (e *ValidationError) Error() string {
	if e.Campo == "" {
		return e.Mensaje
	}
	return fmt.Sprintf("%s: %s", e.Campo, e.Mensaje)
}

func invalid(campo, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Campo: campo, Mensaje: fmt.Sprintf(format, args...)}
}

// EligibilityError reports a subsidy or grace request the policy rules reject.
type EligibilityError struct {
	Regla  string
	Motivo string
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("no elegible (%s): %s", e.Regla, e.Motivo)
}

// ConvergenceError reports that the internal rate of return could not be found.
type ConvergenceError struct {
	Iteraciones int
	Motivo      string
	Err         error
}

func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("no se pudo calcular la TIR tras %d iteraciones: %s", e.Iteraciones, e.Motivo)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConvergenceError) Unwrap() error {
	return e.Err
}
