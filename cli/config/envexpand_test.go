package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("STRATUM_TEST_VAR", "value")

	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"${STRATUM_TEST_VAR}", "value"},
		{"prefix-${STRATUM_TEST_VAR}-suffix", "prefix-value-suffix"},
		{"${STRATUM_TEST_UNSET}", ""},
		{"${STRATUM_TEST_UNSET:-fallback}", "fallback"},
		{"${STRATUM_TEST_VAR:-fallback}", "value"},
		{"${not valid}", "${not valid}"},
		{"${1BAD}", "${1BAD}"},
		{"${}", "${}"},
		{"a ${STRATUM_TEST_VAR} b ${STRATUM_TEST_VAR}", "a value b value"},
	}
	for _, tc := range cases {
		if got := ExpandEnv(tc.in); got != tc.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpandEnv_EmptyValueUsesDefault(t *testing.T) {
	t.Setenv("STRATUM_TEST_EMPTY", "")
	if got := ExpandEnv("${STRATUM_TEST_EMPTY:-fallback}"); got != "fallback" {
		t.Errorf("empty env value should fall back: %q", got)
	}
}
