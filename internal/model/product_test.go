package model

import "testing"

func TestStatusFor(t *testing.T) {
	tests := []struct {
		stock int64
		want  string
	}{
		{-5, StatusOutOfStock},
		{0, StatusOutOfStock},
		{1, StatusLowStock},
		{9, StatusLowStock},
		{10, StatusInStock},
		{250, StatusInStock},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.stock, DefaultLowStockThreshold); got != tt.want {
			t.Errorf("StatusFor(%d) = %q, want %q", tt.stock, got, tt.want)
		}
	}
}

func TestStatusForCustomThreshold(t *testing.T) {
	if got := StatusFor(20, 25); got != StatusLowStock {
		t.Errorf("StatusFor(20, 25) = %q, want %q", got, StatusLowStock)
	}
}

func TestParseMovementKind(t *testing.T) {
	for _, s := range []string{"Inbound", "Outbound"} {
		if _, err := ParseMovementKind(s); err != nil {
			t.Errorf("ParseMovementKind(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "inbound", "OUT", "Adjust"} {
		if _, err := ParseMovementKind(s); err == nil {
			t.Errorf("ParseMovementKind(%q): expected error", s)
		}
	}
}
