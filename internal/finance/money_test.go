package finance

import "testing"

func TestParseAmountToMinor(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"100", 10000, true},
		{"100.50", 10050, true},
		{"100,50", 10050, true},
		{"0.5", 50, true},
		{".5", 50, true},
		{"12.345", 1235, true}, // rounds half up
		{"12.344", 1234, true},
		{"0", 0, true},
		{"", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
		{"10.5a", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmountToMinor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseAmountToMinor(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatMinor(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{1234, "12.34"},
		{-120000, "-1200.00"},
		{100, "1.00"},
	}
	for _, tt := range tests {
		if got := FormatMinor(tt.in); got != tt.want {
			t.Errorf("FormatMinor(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAmountFromMinor(t *testing.T) {
	amt, err := AmountFromMinor("brl", 2500)
	if err != nil {
		t.Fatalf("AmountFromMinor: %v", err)
	}
	if amt.Curr().Code() != "BRL" {
		t.Errorf("currency = %s, want BRL", amt.Curr().Code())
	}
	minor, ok := amt.MinorUnits()
	if !ok || minor != 2500 {
		t.Errorf("minor units = (%d, %v), want (2500, true)", minor, ok)
	}
}
