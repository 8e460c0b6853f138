package model

import "testing"

func TestPaymentStatusLabelsRoundTrip(t *testing.T) {
	for _, st := range PaymentStatuses {
		got, ok := ParsePaymentStatusLabel(st.Label())
		if !ok || got != st {
			t.Fatalf("label %q: got %q ok=%v, want %q", st.Label(), got, ok, st)
		}
		// Pasted wire values resolve too.
		got, ok = ParsePaymentStatusLabel(string(st))
		if !ok || got != st {
			t.Fatalf("wire %q: got %q ok=%v", st, got, ok)
		}
	}
	if _, ok := ParsePaymentStatusLabel("Mystery"); ok {
		t.Fatalf("unknown label parsed")
	}
}

func TestPaymentStatusUnknownLabel(t *testing.T) {
	if got := PaymentStatus("SOMETHING_NEW").Label(); got != "SOMETHING_NEW" {
		t.Fatalf("unknown status label=%q, want raw wire value", got)
	}
	if PaymentStatus("SOMETHING_NEW").Valid() {
		t.Fatalf("unknown status reported valid")
	}
}

func TestParseGenderLabel(t *testing.T) {
	cases := []struct {
		in   string
		want Gender
		ok   bool
	}{
		{"MA", GenderMale, true},
		{"m", GenderMale, true},
		{"Male", GenderMale, true},
		{"FE", GenderFemale, true},
		{"female", GenderFemale, true},
		{"F", GenderFemale, true},
		{"x", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ParseGenderLabel(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("ParseGenderLabel(%q)=%q,%v want %q,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}
