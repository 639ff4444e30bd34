package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iwvelando/mortgage-simulator/internal/catalog"
	"github.com/iwvelando/mortgage-simulator/internal/repository"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"go.uber.org/zap"
)

// Error categories reported in the "tipo" field.
const (
	tipoValidacion   = "validacion"
	tipoElegibilidad = "elegibilidad"
	tipoConvergencia = "convergencia"
	tipoNoEncontrado = "no_encontrado"
	tipoLimite       = "limite"
	tipoInterno      = "interno"
)

type errorResponse struct {
	Error string `json:"error"`
	Tipo  string `json:"tipo"`
	Campo string `json:"campo,omitempty"`
}

// classify maps an error to its HTTP status and response body.
func classify(err error) (int, errorResponse) {
	var (
		validation  *loans.ValidationError
		eligibility *loans.EligibilityError
		convergence *loans.ConvergenceError
		maxBytes    *http.MaxBytesError
	)

	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, errorResponse{Error: "el cuerpo de la solicitud excede el límite permitido", Tipo: tipoValidacion}
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorResponse{Error: validation.Error(), Tipo: tipoValidacion, Campo: validation.Campo}
	case errors.As(err, &eligibility):
		return http.StatusUnprocessableEntity, errorResponse{Error: eligibility.Error(), Tipo: tipoElegibilidad}
	case errors.As(err, &convergence):
		return http.StatusUnprocessableEntity, errorResponse{Error: convergence.Error(), Tipo: tipoConvergencia}
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Tipo: tipoNoEncontrado}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "error interno del servidor", Tipo: tipoInterno}
	}
}

func (h *handler) respondError(c *gin.Context, err error, op string) {
	status, body := classify(err)
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Debug("request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes the body. Malformed payloads become validation errors;
// oversized ones keep their *http.MaxBytesError.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return &loans.ValidationError{Mensaje: "JSON inválido: " + err.Error()}
	}
	return nil
}
