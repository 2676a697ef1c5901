package timestamp

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare date", "2024-03-01", "2024-03-01T00:00:00Z"},
		{"already canonical", "2024-03-01T12:00:00Z", "2024-03-01T12:00:00Z"},
		{"positive offset untouched", "2024-03-01T12:00:00+02:00", "2024-03-01T12:00:00+02:00"},
		{"negative offset untouched", "2024-03-01T12:00:00-05:00", "2024-03-01T12:00:00-05:00"},
		{"space separated datetime", "2024-03-01 12:30:45", "2024-03-01T12:30:45Z"},
		{"t separated no zone", "2024-03-01T12:30:45", "2024-03-01T12:30:45Z"},
		{"garbage passthrough", "not-a-date", "not-a-date"},
		{"ten chars but not a date", "03/01/2024", "03/01/2024"},
		{"empty passthrough", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIsTotal(t *testing.T) {
	// Unparseable input must come back unchanged, never panic or error.
	inputs := []string{"tomorrow", "2024", "2024-13-45", "T", "Z"}
	for _, in := range inputs {
		if got := Normalize(in); got != in {
			t.Fatalf("Normalize(%q) = %q, want passthrough", in, got)
		}
	}
}

func TestIsCanonical(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"2024-03-01T00:00:00Z", true},
		{"2024-03-01T12:00:00+02:00", true},
		{"2024-03-01T12:00:00-0500", true},
		{"2024-03-01", false},
		{"not-a-date", false},
		{"2024-03-01 12:00:00", false},
	}

	for _, tc := range cases {
		if got := IsCanonical(tc.in); got != tc.want {
			t.Fatalf("IsCanonical(%q) = %t, want %t", tc.in, got, tc.want)
		}
	}
}

func TestNormalizedOutputIsCanonical(t *testing.T) {
	for _, in := range []string{"2024-03-01", "2024-03-01 12:30:45", "2024-03-01T12:30:45"} {
		if out := Normalize(in); !IsCanonical(out) {
			t.Fatalf("Normalize(%q) = %q is not canonical", in, out)
		}
	}
}
