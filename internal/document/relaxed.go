package document

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseRelaxed accepts the literal syntax generators fall back to when they do not emit
// strict JSON: single-quoted strings, True/False/None, trailing commas, tuples, unquoted
// keys and comments. The candidate is rewritten into a YAML flow mapping and decoded with
// the YAML parser.
func parseRelaxed(candidate string) (Object, error) {
	if !strings.ContainsRune(candidate, ':') {
		return nil, fmt.Errorf("no key/value pairs")
	}
	normalized := normalizeLiteral(candidate)

	var raw any
	if err := yaml.Unmarshal([]byte(normalized), &raw); err != nil {
		return nil, fmt.Errorf("literal parse: %w", err)
	}
	v, err := FromAny(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("decoded %s, want object", v.Kind())
	}
	return obj, nil
}

var literalKeywords = map[string]string{
	"True":  "true",
	"False": "false",
	"None":  "null",
}

// normalizeLiteral rewrites language-literal syntax into YAML flow syntax. Single-quoted
// strings become double-quoted ones so their backslash escapes keep their meaning.
func normalizeLiteral(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 16)

	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b == '"':
			i = copyDoubleQuoted(&out, s, i)
		case b == '\'':
			i = convertSingleQuoted(&out, s, i)
		case b == ',':
			if next := nextSignificant(s, i+1); next == '}' || next == ']' || next == ')' {
				continue
			}
			out.WriteByte(b)
		case b == '(':
			out.WriteByte('[')
		case b == ')':
			out.WriteByte(']')
		case b == '\t':
			out.WriteByte(' ')
		case isIdentStart(b):
			j := i
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			word := s[i:j]
			if repl, ok := literalKeywords[word]; ok {
				word = repl
			}
			out.WriteString(word)
			i = j - 1
		default:
			out.WriteByte(b)
		}
	}
	return out.String()
}

// copyDoubleQuoted copies the double-quoted string starting at s[start] verbatim and
// returns the index of its closing quote.
func copyDoubleQuoted(out *strings.Builder, s string, start int) int {
	out.WriteByte('"')
	for i := start + 1; i < len(s); i++ {
		b := s[i]
		out.WriteByte(b)
		switch b {
		case '\\':
			if i+1 < len(s) {
				i++
				out.WriteByte(s[i])
			}
		case '"':
			return i
		}
	}
	return len(s) - 1
}

// convertSingleQuoted rewrites the single-quoted string starting at s[start] as a
// double-quoted string and returns the index of its closing quote.
func convertSingleQuoted(out *strings.Builder, s string, start int) int {
	out.WriteByte('"')
	for i := start + 1; i < len(s); i++ {
		b := s[i]
		switch b {
		case '\\':
			if i+1 < len(s) {
				i++
				if s[i] == '\'' {
					out.WriteByte('\'')
				} else {
					out.WriteByte('\\')
					out.WriteByte(s[i])
				}
			}
		case '"':
			out.WriteString(`\"`)
		case '\'':
			out.WriteByte('"')
			return i
		default:
			out.WriteByte(b)
		}
	}
	out.WriteByte('"')
	return len(s) - 1
}

func nextSignificant(s string, from int) byte {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return s[i]
	}
	return 0
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
