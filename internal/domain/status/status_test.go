package status

import "testing"

func TestNormalize_Synonyms(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"CONFIRMED", Accepted},
		{"confirmed", Accepted},
		{"CONFIRMED_V2", Accepted},
		{"REJECTED", Declined},
		{"CANCELLED", Declined},
		{"Canceled", Declined},
		{"declined", Declined},
		{"PENDING", Pending},
		{"accepted", Accepted},
		{"Completed", Completed},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Normalize(tt.raw)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if !IsCanonical(got) {
				t.Errorf("Normalize(%q) = %q is not canonical", tt.raw, got)
			}
		})
	}
}

func TestNormalize_UnknownPassesThroughUppercased(t *testing.T) {
	for _, raw := range []string{"no_show", "Rescheduled", "", " pending "} {
		got := Normalize(raw)
		if got != upper(raw) {
			t.Errorf("Normalize(%q) = %q, want %q", raw, got, upper(raw))
		}
	}
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
