package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iwvelando/mortgage-simulator/internal/cache"
	"github.com/iwvelando/mortgage-simulator/internal/catalog"
	"github.com/iwvelando/mortgage-simulator/internal/planpago"
	"github.com/iwvelando/mortgage-simulator/internal/repository"
	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	decimal.MarshalJSONWithoutQuotes = true
}

// clientPayload mirrors what the web client posts to /plan-pagos.
const clientPayload = `{
  "localId": 0,
  "userId": 7,
  "entidadFinancieraId": 1,
  "precio_venta": 150000,
  "cuota_inicial": 30000,
  "bono_aplicable": false,
  "num_anios": 20,
  "frecuencia_pago": "mensual",
  "tipo_tasa": "EFECTIVA",
  "tasa_interes_anual": 0,
  "capitalizacion": null,
  "periodo_gracia": {"tipo": "SIN_GRACIA", "meses": 0}
}`

func testService(t *testing.T) *planpago.Service {
	t.Helper()
	cat := catalog.New(
		[]catalog.EntidadFinanciera{
			{
				ID: 1, Nombre: "Banco Uno", Moneda: "PEN", TasaInteres: 0.10, TipoTasa: loans.TasaEfectiva,
				AplicaBonoTechoPropio: true, PeriodosGraciaPermitidos: "PARCIAL", Activo: true,
			},
			{ID: 3, Nombre: "Banco Cerrado", Moneda: "PEN", TasaInteres: 0.09, TipoTasa: loans.TasaEfectiva},
		},
		[]catalog.Local{
			{ID: 4, Nombre: "Depa Surco", Direccion: "Av. Primavera 123", Tipo: "departamento",
				Precio: decimal.NewFromInt(110000), Moneda: "PEN"},
		},
	)
	return planpago.NewService(zap.NewNop(), loans.NewEngine(zap.NewNop(), loans.Options{}), cat,
		repository.NewMemory(), cache.NewMemoryStore(), planpago.Options{
			BonoRules:  eligibility.BonoRules{PrecioMaximo: decimal.NewFromInt(128900)},
			TipoCambio: decimal.RequireFromString("3.75"),
		})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response %q: %v", rr.Body.String(), err)
	}
	return resp
}

func TestCreatePlanFromClientPayload(t *testing.T) {
	h := NewHandler(zap.NewNop(), testService(t), Options{})

	rr := do(t, h, http.MethodPost, "/plan-pagos", clientPayload)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp planpago.PlanCreado
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID == 0 {
		t.Fatal("expected a plan id")
	}
	if resp.Result == nil || len(resp.Cuotas) != 240 {
		t.Fatalf("expected 240 installments, got %+v", resp.Result)
	}
	if resp.Plan.Moneda != "PEN" || resp.Plan.TasaInteresAnual != 0.10 {
		t.Fatalf("expected entity terms in plan, got %+v", resp.Plan)
	}
	if !resp.FlujoInicial.Equal(decimal.NewFromInt(120000)) {
		t.Fatalf("expected flujoInicial 120000, got %s", resp.FlujoInicial)
	}

	// Amounts must be JSON numbers.
	var raw map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode raw response: %v", err)
	}
	if _, ok := raw["flujoInicial"].(float64); !ok {
		t.Fatalf("expected flujoInicial as a number, got %T", raw["flujoInicial"])
	}
}

func TestPlanLifecycle(t *testing.T) {
	h := NewHandler(zap.NewNop(), testService(t), Options{})

	rr := do(t, h, http.MethodPost, "/plan-pagos", clientPayload)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created planpago.PlanCreado
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}

	rr = do(t, h, http.MethodGet, "/plan-pagos/usuario/7", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var planes planesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &planes); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(planes.Planes) != 1 || planes.Planes[0].ID != created.ID {
		t.Fatalf("expected the created plan in the list, got %+v", planes.Planes)
	}

	path := "/plan-pagos/" + jsonNumber(created.ID) + "/cuotas"
	rr = do(t, h, http.MethodGet, path, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("cuotas: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var cuotas cuotasResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &cuotas); err != nil {
		t.Fatalf("failed to decode cuotas response: %v", err)
	}
	if len(cuotas.Cuotas) != 240 || cuotas.Cuotas[0].Numero != 1 {
		t.Fatalf("expected 240 ordered installments, got %d", len(cuotas.Cuotas))
	}

	rr = do(t, h, http.MethodDelete, "/plan-pagos/"+jsonNumber(created.ID), "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, path, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cuotas after delete: expected 404, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Tipo != tipoNoEncontrado {
		t.Fatalf("expected tipo %q, got %+v", tipoNoEncontrado, resp)
	}

	rr = do(t, h, http.MethodGet, "/plan-pagos/usuario/7", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &planes); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(planes.Planes) != 0 {
		t.Fatalf("expected no plans after delete, got %d", len(planes.Planes))
	}
}

func jsonNumber(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestSimulateDoesNotStore(t *testing.T) {
	svc := testService(t)
	h := NewHandler(zap.NewNop(), svc, Options{})

	rr := do(t, h, http.MethodPost, "/simulaciones", clientPayload)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var result loans.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Indicadores.TCEA <= 0 {
		t.Fatalf("expected a positive TCEA, got %v", result.Indicadores.TCEA)
	}

	rr = do(t, h, http.MethodGet, "/plan-pagos/usuario/7", "")
	if !strings.Contains(rr.Body.String(), `"planes":[]`) {
		t.Fatalf("expected an empty plan list, got %s", rr.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		tipo   string
	}{
		{"malformed json", http.MethodPost, "/plan-pagos", `{"precio_venta":`, http.StatusBadRequest, tipoValidacion},
		{"bad bono type", http.MethodPost, "/plan-pagos", `{"bono_aplicable":"si"}`, http.StatusBadRequest, tipoValidacion},
		{"invalid term", http.MethodPost, "/simulaciones",
			strings.Replace(clientPayload, `"num_anios": 20`, `"num_anios": 0`, 1), http.StatusBadRequest, tipoValidacion},
		{"unknown entity", http.MethodPost, "/plan-pagos",
			strings.Replace(clientPayload, `"entidadFinancieraId": 1`, `"entidadFinancieraId": 99`, 1), http.StatusNotFound, tipoNoEncontrado},
		{"inactive entity", http.MethodPost, "/plan-pagos",
			strings.Replace(clientPayload, `"entidadFinancieraId": 1`, `"entidadFinancieraId": 3`, 1), http.StatusNotFound, tipoNoEncontrado},
		{"subsidy above price ceiling", http.MethodPost, "/plan-pagos",
			strings.Replace(clientPayload, `"bono_aplicable": false`, `"bono_aplicable": 20000`, 1), http.StatusUnprocessableEntity, tipoElegibilidad},
		{"grace not offered", http.MethodPost, "/plan-pagos",
			strings.Replace(clientPayload, `"tipo": "SIN_GRACIA", "meses": 0`, `"tipo": "TOTAL", "meses": 6`, 1), http.StatusBadRequest, tipoValidacion},
		{"non numeric id", http.MethodGet, "/plan-pagos/abc/cuotas", "", http.StatusBadRequest, tipoValidacion},
		{"zero user id", http.MethodGet, "/plan-pagos/usuario/0", "", http.StatusBadRequest, tipoValidacion},
		{"unknown plan", http.MethodDelete, "/plan-pagos/42", "", http.StatusNotFound, tipoNoEncontrado},
		{"unknown local", http.MethodGet, "/catalogo/locales/9", "", http.StatusNotFound, tipoNoEncontrado},
	}

	h := NewHandler(zap.NewNop(), testService(t), Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.path, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			resp := decodeError(t, rr)
			if resp.Tipo != tt.tipo {
				t.Fatalf("expected tipo %q, got %+v", tt.tipo, resp)
			}
			if resp.Error == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	h := NewHandler(zap.NewNop(), testService(t), Options{MaxBodySize: 64})

	rr := do(t, h, http.MethodPost, "/plan-pagos", clientPayload)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCatalogEndpoints(t *testing.T) {
	h := NewHandler(zap.NewNop(), testService(t), Options{})

	rr := do(t, h, http.MethodGet, "/catalogo/locales", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var locales localesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &locales); err != nil {
		t.Fatalf("failed to decode locales: %v", err)
	}
	if len(locales.Locales) != 1 || locales.Locales[0].Nombre != "Depa Surco" {
		t.Fatalf("unexpected locales %+v", locales.Locales)
	}

	rr = do(t, h, http.MethodGet, "/catalogo/locales/4", "")
	var local localResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &local); err != nil {
		t.Fatalf("failed to decode local: %v", err)
	}
	if local.Local.ID != 4 || !local.Local.Precio.Equal(decimal.NewFromInt(110000)) {
		t.Fatalf("unexpected local %+v", local.Local)
	}

	rr = do(t, h, http.MethodGet, "/entidades-financieras", "")
	var entidades []catalog.EntidadFinanciera
	if err := json.Unmarshal(rr.Body.Bytes(), &entidades); err != nil {
		t.Fatalf("expected a bare array of entities: %v", err)
	}
	if len(entidades) != 1 || entidades[0].ID != 1 {
		t.Fatalf("expected only the active entity, got %+v", entidades)
	}
}

func TestHealthReadyAndVersion(t *testing.T) {
	h := NewHandler(zap.NewNop(), testService(t), Options{Version: " 1.2.3 "})

	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, h, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}

	rr := do(t, h, http.MethodGet, "/api/version", "")
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode version: %v", err)
	}
	if resp["version"] != "1.2.3" {
		t.Fatalf("expected trimmed version, got %q", resp["version"])
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	h := NewHandler(zap.NewNop(), testService(t), Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	rr = do(t, h, http.MethodGet, "/healthz", "")
	if rr.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected a generated request id")
	}

	rr = do(t, h, http.MethodOptions, "/plan-pagos", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected CORS headers on preflight")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	h := NewHandler(zap.NewNop(), testService(t), Options{Limiter: limiter})

	for i := 0; i < 2; i++ {
		if rr := do(t, h, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rr.Code)
		}
	}
	rr := do(t, h, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Tipo != tipoLimite {
		t.Fatalf("expected tipo %q, got %+v", tipoLimite, resp)
	}
}

func TestRateLimiterRefillAndCleanup(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first request must pass")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("second request within the window must be rejected")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("other clients have their own bucket")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("10.0.0.1") {
		t.Fatal("bucket must refill after the window")
	}

	now = now.Add(2 * time.Hour)
	limiter.cleanup()
	if n := limiter.size(); n != 0 {
		t.Fatalf("expected idle buckets to be evicted, %d left", n)
	}

	limiter.Stop()
	limiter.Stop()
}

func TestClassifyUnknownError(t *testing.T) {
	status, body := classify(bytes.ErrTooLarge)
	if status != http.StatusInternalServerError || body.Tipo != tipoInterno {
		t.Fatalf("expected internal error, got %d %+v", status, body)
	}
	if strings.Contains(body.Error, "too large") {
		t.Fatal("internal error details must not leak")
	}
}
