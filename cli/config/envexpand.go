package config

import (
	"os"
	"strings"
)

// ExpandEnv substitutes ${VAR} and ${VAR:-default} references in raw
// config text before YAML decoding. An unset variable without a default
// expands to the empty string rather than erroring: required values then
// fail downstream validation with a clearer message than a YAML parse
// error would give. Anything between braces that is not a valid variable
// name is left untouched.
func ExpandEnv(input string) string {
	var out strings.Builder
	for {
		start := strings.Index(input, "${")
		if start < 0 {
			break
		}
		end := strings.Index(input[start:], "}")
		if end < 0 {
			break
		}
		end += start
		out.WriteString(input[:start])

		ref := input[start+2 : end]
		name, fallback, hasFallback := strings.Cut(ref, ":-")
		switch {
		case !validEnvName(name):
			out.WriteString(input[start : end+1])
		default:
			if value := os.Getenv(name); value != "" {
				out.WriteString(value)
			} else if hasFallback {
				out.WriteString(fallback)
			}
		}
		input = input[end+1:]
	}
	out.WriteString(input)
	return out.String()
}

// validEnvName reports whether name is a POSIX-style variable name:
// letters, digits and underscores, not starting with a digit.
func validEnvName(name string) bool {
	for i, r := range name {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return name != ""
}
