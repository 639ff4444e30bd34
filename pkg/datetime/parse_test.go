package datetime

import (
	"testing"
)

func TestValidateDate(t *testing.T) {
	tests := []struct {
		date    string
		wantErr bool
	}{
		{"2025-01", false},
		{"2025-12", false},
		{"2025-13", true},
		{"2025/01", true},
		{"01-2025", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			err := ValidateDate(tt.date)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDate(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
		})
	}
}

func TestOffsetDateAdvanced(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		layout   string
		months   int
		expected string
		wantErr  bool
	}{
		{
			name:     "Add multiple years",
			date:     "2025-01",
			layout:   DateTimeLayout,
			months:   24,
			expected: "2027-01",
		},
		{
			name:     "Subtract multiple years",
			date:     "2025-01",
			layout:   DateTimeLayout,
			months:   -24,
			expected: "2023-01",
		},
		{
			name:     "Cross year boundary forward",
			date:     "2025-06",
			layout:   DateTimeLayout,
			months:   8,
			expected: "2026-02",
		},
		{
			name:     "Zero months",
			date:     "2025-06",
			layout:   DateTimeLayout,
			months:   0,
			expected: "2025-06",
		},
		{
			name:    "Invalid date",
			date:    "junio",
			layout:  DateTimeLayout,
			months:  1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := OffsetDate(tt.date, tt.layout, tt.months)
			if tt.wantErr {
				if err == nil {
					t.Errorf("OffsetDate() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("OffsetDate() error = %v", err)
				return
			}
			if result != tt.expected {
				t.Errorf("OffsetDate() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestPaymentDates(t *testing.T) {
	tests := []struct {
		name         string
		start        string
		periodMonths int
		n            int
		expected     []string
	}{
		{
			name:         "Monthly across year end",
			start:        "2025-11",
			periodMonths: 1,
			n:            3,
			expected:     []string{"2025-12", "2026-01", "2026-02"},
		},
		{
			name:         "Quarterly",
			start:        "2025-01",
			periodMonths: 3,
			n:            4,
			expected:     []string{"2025-04", "2025-07", "2025-10", "2026-01"},
		},
		{
			name:         "Yearly",
			start:        "2025-06",
			periodMonths: 12,
			n:            2,
			expected:     []string{"2026-06", "2027-06"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates, err := PaymentDates(tt.start, tt.periodMonths, tt.n)
			if err != nil {
				t.Fatalf("PaymentDates() error = %v", err)
			}
			if len(dates) != len(tt.expected) {
				t.Fatalf("PaymentDates() returned %d dates, expected %d", len(dates), len(tt.expected))
			}
			for i := range dates {
				if dates[i] != tt.expected[i] {
					t.Errorf("PaymentDates()[%d] = %s, expected %s", i, dates[i], tt.expected[i])
				}
			}
		})
	}
}

func TestPaymentDatesInvalidStart(t *testing.T) {
	if _, err := PaymentDates("2025", 1, 12); err == nil {
		t.Error("expected an error for an invalid start date")
	}
}

func TestTimeOperations(t *testing.T) {
	baseDate := "2025-01"

	future, err := OffsetDate(baseDate, DateTimeLayout, 6)
	if err != nil {
		t.Fatalf("OffsetDate forward failed: %v", err)
	}

	past, err := OffsetDate(future, DateTimeLayout, -6)
	if err != nil {
		t.Fatalf("OffsetDate backward failed: %v", err)
	}

	if past != baseDate {
		t.Errorf("Round trip date operation failed: started with %s, ended with %s", baseDate, past)
	}
}
