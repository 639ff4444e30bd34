// Package server exposes the payment plan service over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iwvelando/mortgage-simulator/internal/catalog"
	"github.com/iwvelando/mortgage-simulator/internal/models"
	"github.com/iwvelando/mortgage-simulator/internal/planpago"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// Options tune the handler.
type Options struct {
	MaxBodySize int64
	Version     string
	// Limiter is optional; nil disables per-client limiting.
	Limiter *RateLimiter
}

type handler struct {
	logger  *zap.Logger
	svc     *planpago.Service
	version string
}

type localesResponse struct {
	Locales []catalog.Local `json:"locales"`
}

type localResponse struct {
	Local catalog.Local `json:"local"`
}

type cuotasResponse struct {
	PlanID uint64        `json:"planId"`
	Cuotas []loans.Cuota `json:"cuotas"`
}

type planesResponse struct {
	UserID uint64            `json:"userId"`
	Planes []models.PlanPago `json:"planes"`
}

// NewHandler returns the gin engine serving the REST API.
func NewHandler(logger *zap.Logger, svc *planpago.Service, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = 256 * 1024
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}

	h := &handler{logger: logger, svc: svc, version: version}

	engine := gin.New()
	engine.Use(requestIDMiddleware(), recoveryMiddleware(logger), accessLogMiddleware(logger), corsMiddleware())
	if opts.Limiter != nil {
		engine.Use(rateLimitMiddleware(opts.Limiter, logger))
	}
	engine.Use(bodyLimitMiddleware(opts.MaxBodySize))

	h.Register(engine)
	return engine
}

// Register mounts every route on r.
func (h *handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
	r.GET("/api/version", h.handleVersion)

	r.POST("/simulaciones", h.simulate)

	plans := r.Group("/plan-pagos")
	plans.POST("", h.createPlan)
	plans.GET("/usuario/:userId", h.listPlans)
	plans.GET("/:id/cuotas", h.listCuotas)
	plans.DELETE("/:id", h.deletePlan)

	r.GET("/catalogo/locales", h.listLocales)
	r.GET("/catalogo/locales/:id", h.getLocal)
	r.GET("/entidades-financieras", h.listEntidades)
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()
	if err := h.svc.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed",
			zap.String("op", "server.ready"),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store_unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *handler) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": h.version})
}

func (h *handler) simulate(c *gin.Context) {
	var sol planpago.Solicitud
	if err := bindJSON(c, &sol); err != nil {
		h.respondError(c, err, "server.simulate")
		return
	}
	result, err := h.svc.Simulate(c.Request.Context(), sol)
	if err != nil {
		h.respondError(c, err, "server.simulate")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) createPlan(c *gin.Context) {
	var sol planpago.Solicitud
	if err := bindJSON(c, &sol); err != nil {
		h.respondError(c, err, "server.createPlan")
		return
	}
	plan, err := h.svc.Create(c.Request.Context(), sol)
	if err != nil {
		h.respondError(c, err, "server.createPlan")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *handler) listPlans(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	planes, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "server.listPlans")
		return
	}
	if planes == nil {
		planes = []models.PlanPago{}
	}
	c.JSON(http.StatusOK, planesResponse{UserID: userID, Planes: planes})
}

func (h *handler) listCuotas(c *gin.Context) {
	planID, ok := idParam(c, "id")
	if !ok {
		return
	}
	cuotas, err := h.svc.Cuotas(c.Request.Context(), planID)
	if err != nil {
		h.respondError(c, err, "server.listCuotas")
		return
	}
	c.JSON(http.StatusOK, cuotasResponse{PlanID: planID, Cuotas: cuotas})
}

func (h *handler) deletePlan(c *gin.Context) {
	planID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), planID); err != nil {
		h.respondError(c, err, "server.deletePlan")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listLocales(c *gin.Context) {
	c.JSON(http.StatusOK, localesResponse{Locales: h.svc.Catalog().Locales()})
}

func (h *handler) getLocal(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	local, err := h.svc.Catalog().Local(uint(id))
	if err != nil {
		h.respondError(c, err, "server.getLocal")
		return
	}
	c.JSON(http.StatusOK, localResponse{Local: local})
}

// listEntidades answers with a bare array, which is what the client expects.
func (h *handler) listEntidades(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Catalog().Entidades())
}

func idParam(c *gin.Context, name string) (uint64, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error: name + " debe ser un entero positivo",
			Tipo:  tipoValidacion,
			Campo: name,
		})
		return 0, false
	}
	return id, true
}
