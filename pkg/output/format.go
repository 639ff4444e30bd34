// Package output provides utilities for formatting and displaying simulation results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/format"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"github.com/iwvelando/mortgage-simulator/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders the result in the requested output format.
func Write(w io.Writer, outputFormat string, result *loans.Result) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, result)
	case constants.OutputFormatCSV:
		return CsvFormat(w, result)
	case constants.OutputFormatJSON:
		return JSONFormat(w, result)
	default:
		return fmt.Errorf("unknown output format %s", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, result *loans.Result) error {
	p := message.NewPrinter(language.Spanish)
	plan := result.Plan
	symbol := format.Symbol(plan.Moneda)

	_, _ = fmt.Fprintf(w, "--- Plan de pagos (%s) ---\n", plan.Moneda)
	_, _ = fmt.Fprintf(w, "Precio de venta:   %s\n", format.Currency(plan.PrecioVenta, plan.Moneda))
	_, _ = fmt.Fprintf(w, "Cuota inicial:     %s\n", format.Currency(plan.CuotaInicial, plan.Moneda))
	_, _ = fmt.Fprintf(w, "Bono:              %s\n", format.Currency(plan.BonoAplicable, plan.Moneda))
	_, _ = fmt.Fprintf(w, "Monto préstamo:    %s\n", format.Currency(plan.MontoPrestamo, plan.Moneda))
	_, _ = fmt.Fprintf(w, "Cuotas:            %d (%s)\n", plan.TotalCuotas, plan.FrecuenciaPago)
	_, _ = fmt.Fprintf(w, "Gracia:            %s %d meses\n", plan.TipoGracia, plan.MesesGracia)
	_, _ = fmt.Fprintf(w, "Cuota base:        %s\n", format.Currency(plan.CuotaBase, plan.Moneda))
	_, _ = fmt.Fprintf(w, "Total intereses:   %s\n", format.Currency(plan.TotalIntereses, plan.Moneda))
	_, _ = fmt.Fprintf(w, "Total pagado:      %s\n", format.Currency(plan.TotalPagado, plan.Moneda))
	_, _ = fmt.Fprintf(w, "Intereses/monto:   %.2f%%\n", mathutil.CalculatePercentage(plan.TotalIntereses, plan.MontoPrestamo))
	_, _ = fmt.Fprintf(w, "Flujo inicial:     %s\n", format.Currency(result.FlujoInicial, plan.Moneda))
	_, _ = fmt.Fprintf(w, "TEA: %s | TCEA: %s | TIR: %s | VAN: %s\n\n",
		format.Percent(result.Indicadores.TEA, 4),
		format.Percent(result.Indicadores.TCEA, 4),
		format.Percent(result.Indicadores.TIR, 6),
		format.Currency(result.Indicadores.VAN, plan.Moneda))

	_, _ = fmt.Fprintf(w, "N°  | Gracia     | Saldo inicial | Interés | Amortización | Seguros | Gastos | Flujo | Saldo final\n")
	_, _ = fmt.Fprintf(w, "__  | __________ | _____________ | _______ | ____________ | _______ | ______ | _____ | ___________\n")
	for _, c := range result.Cuotas {
		seguros := mathutil.Sum(c.SeguroDesgravamen, c.SeguroRiesgo)
		gastos := mathutil.Sum(c.Comision, c.Portes, c.GastosAdministrativos)
		_, err := p.Fprintf(w, "%d | %s | %s %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f\n",
			c.Numero, c.TipoGracia, symbol,
			c.SaldoInicial.InexactFloat64(),
			c.Interes.InexactFloat64(),
			c.Amortizacion.InexactFloat64(),
			seguros.InexactFloat64(),
			gastos.InexactFloat64(),
			c.Flujo.InexactFloat64(),
			c.SaldoFinal.InexactFloat64())
		if err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat outputs the installment schedule in comma-separated value format.
func CsvFormat(w io.Writer, result *loans.Result) error {
	writer := csv.NewWriter(w)
	header := []string{"numero", "fecha_pago", "tipo_gracia", "saldo_inicial", "interes", "cuota", "amortizacion",
		"seguro_desgravamen", "seguro_riesgo", "comision", "portes", "gastos_administrativos", "flujo", "saldo_final"}
	if err := writer.Write(header); err != nil {
		return err
	}
	initial := make([]string, len(header))
	initial[0] = "0"
	initial[len(header)-2] = result.FlujoInicial.StringFixed(constants.DecimalPlaces)
	initial[len(header)-1] = result.Plan.MontoPrestamo.StringFixed(constants.DecimalPlaces)
	if err := writer.Write(initial); err != nil {
		return err
	}
	for _, c := range result.Cuotas {
		record := []string{
			strconv.Itoa(c.Numero),
			c.FechaPago,
			string(c.TipoGracia),
			c.SaldoInicial.StringFixed(constants.DecimalPlaces),
			c.Interes.StringFixed(constants.DecimalPlaces),
			c.Cuota.StringFixed(constants.DecimalPlaces),
			c.Amortizacion.StringFixed(constants.DecimalPlaces),
			c.SeguroDesgravamen.StringFixed(constants.DecimalPlaces),
			c.SeguroRiesgo.StringFixed(constants.DecimalPlaces),
			c.Comision.StringFixed(constants.DecimalPlaces),
			c.Portes.StringFixed(constants.DecimalPlaces),
			c.GastosAdministrativos.StringFixed(constants.DecimalPlaces),
			c.Flujo.StringFixed(constants.DecimalPlaces),
			c.SaldoFinal.StringFixed(constants.DecimalPlaces),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// JSONFormat outputs the payload exactly as the HTTP API returns it.
func JSONFormat(w io.Writer, result *loans.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
