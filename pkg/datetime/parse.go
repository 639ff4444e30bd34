// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
)

const (
	// DateTimeLayout is the format expected for fecha_inicio and is also the
	// format of each installment's fecha_pago.
	DateTimeLayout = constants.DateTimeLayout
)

// ValidateDate checks that a date follows DateTimeLayout.
func ValidateDate(date string) error {
	if _, err := time.Parse(DateTimeLayout, date); err != nil {
		return fmt.Errorf("fecha %q inválida, se espera el formato AAAA-MM", date)
	}
	return nil
}

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// PaymentDates returns the due month of each of n installments spaced
// periodMonths apart, the first one falling one period after start.
func PaymentDates(start string, periodMonths, n int) ([]string, error) {
	dates := make([]string, n)
	for i := range dates {
		date, err := OffsetDate(start, DateTimeLayout, (i+1)*periodMonths)
		if err != nil {
			return nil, err
		}
		dates[i] = date
	}
	return dates, nil
}
