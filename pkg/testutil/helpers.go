// Package testutil provides common utility functions for testing.
package testutil

import (
	"context"
	"testing"

	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Logger returns a logger that writes through the test's log.
func Logger(t testing.TB) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

// SampleRequest returns the reference loan: a 150,000 property with 30,000
// down, 20 years of monthly installments at a 10% effective annual rate.
func SampleRequest() loans.LoanRequest {
	return loans.LoanRequest{
		PrecioVenta:      decimal.NewFromInt(150000),
		CuotaInicial:     decimal.NewFromInt(30000),
		NumAnios:         20,
		FrecuenciaPago:   "mensual",
		TipoTasa:         loans.TasaEfectiva,
		TasaInteresAnual: 0.10,
		PeriodoGracia:    loans.PeriodoGracia{Tipo: eligibility.SinGracia},
		Moneda:           "PEN",
	}
}

// SampleResult simulates SampleRequest and fails the test on error.
func SampleResult(t testing.TB) *loans.Result {
	t.Helper()
	result, err := loans.NewEngine(Logger(t), loans.Options{}).Simulate(context.Background(), SampleRequest())
	if err != nil {
		t.Fatalf("simulating sample request: %v", err)
	}
	return result
}

// FindCuota finds an installment by number in the result.
// Returns a pointer to the installment if found, nil otherwise.
func FindCuota(result *loans.Result, numero int) *loans.Cuota {
	if result == nil {
		return nil
	}
	for i := range result.Cuotas {
		if result.Cuotas[i].Numero == numero {
			return &result.Cuotas[i]
		}
	}
	return nil
}
