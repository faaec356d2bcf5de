package loader

import (
	"errors"
	"strings"
	"unicode"
)

// errUnterminatedBlock is returned when a config block's braces never close.
var errUnterminatedBlock = errors.New("unterminated config block")

// extractConfigBlock splits source into the config-block body (text between
// the braces of a leading `config { ... }`) and the remaining template text.
// Returns an empty body when the file carries no config block.
//
// The scan is lexical only: brace depth is tracked while skipping string
// literals ('', "", ``) and SQL/JS comments, so braces inside queries or
// comments never confuse it. The block must be the first non-comment token
// in the file.
func extractConfigBlock(source string) (body, template string, err error) {
	i := skipLeadingTrivia(source)
	if !strings.HasPrefix(source[i:], "config") {
		return "", source, nil
	}

	j := i + len("config")
	for j < len(source) && unicode.IsSpace(rune(source[j])) {
		j++
	}
	if j >= len(source) || source[j] != '{' {
		// "config" here is just SQL text (e.g. a column named config).
		return "", source, nil
	}

	end, err := matchBrace(source, j)
	if err != nil {
		return "", "", err
	}

	body = source[j+1 : end]
	template = source[:i] + source[end+1:]
	return body, template, nil
}

// skipLeadingTrivia returns the index of the first byte that is neither
// whitespace nor part of a leading comment.
func skipLeadingTrivia(s string) int {
	i := 0
	for i < len(s) {
		switch {
		case unicode.IsSpace(rune(s[i])):
			i++
		case strings.HasPrefix(s[i:], "--") || strings.HasPrefix(s[i:], "//"):
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return len(s)
			}
			i += nl + 1
		case strings.HasPrefix(s[i:], "/*"):
			close := strings.Index(s[i+2:], "*/")
			if close < 0 {
				return len(s)
			}
			i += 2 + close + 2
		default:
			return i
		}
	}
	return i
}

// matchBrace returns the index of the brace closing the one at open.
func matchBrace(s string, open int) (int, error) {
	depth := 0
	i := open
	for i < len(s) {
		switch c := s[i]; c {
		case '{':
			depth++
			i++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
			i++
		case '\'', '"', '`':
			end, ok := skipString(s, i)
			if !ok {
				return 0, errUnterminatedBlock
			}
			i = end
		case '-', '/':
			if strings.HasPrefix(s[i:], "--") || strings.HasPrefix(s[i:], "//") {
				nl := strings.IndexByte(s[i:], '\n')
				if nl < 0 {
					return 0, errUnterminatedBlock
				}
				i += nl + 1
			} else if strings.HasPrefix(s[i:], "/*") {
				close := strings.Index(s[i+2:], "*/")
				if close < 0 {
					return 0, errUnterminatedBlock
				}
				i += 2 + close + 2
			} else {
				i++
			}
		default:
			i++
		}
	}
	return 0, errUnterminatedBlock
}

// skipString returns the index just past the string literal opening at i.
// Backslash escapes are honored inside single and double quotes.
func skipString(s string, i int) (int, bool) {
	quote := s[i]
	j := i + 1
	for j < len(s) {
		switch s[j] {
		case '\\':
			if quote != '`' {
				j++ // skip the escaped byte
			}
		case quote:
			return j + 1, true
		}
		j++
	}
	return 0, false
}
