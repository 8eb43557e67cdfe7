package query

import "strings"

// Placeholders returns the distinct named placeholders in text, lower-cased,
// in order of first appearance. Quoted literals, quoted identifiers and
// comments are skipped, so format masks such as 'HH24:MI' and JSON paths
// are not mistaken for binds. The PL/SQL assignment := is not a placeholder.
func Placeholders(text string) []string {
	var (
		out  []string
		seen = make(map[string]struct{})
	)

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\'':
			i = skipQuoted(text, i, '\'')
		case c == '"':
			i = skipQuoted(text, i, '"')
		case c == '-' && i+1 < len(text) && text[i+1] == '-':
			for i < len(text) && text[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				return out
			}
			i += 2 + end + 1
		case c == ':':
			if i+1 >= len(text) || text[i+1] == '=' {
				continue
			}
			j := i + 1
			if isIdentStart(text[j]) {
				j++
				for j < len(text) && isIdentPart(text[j]) {
					j++
				}
			} else {
				for j < len(text) && text[j] >= '0' && text[j] <= '9' {
					j++
				}
			}
			if j == i+1 {
				continue
			}
			name := strings.ToLower(text[i+1 : j])
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
			i = j - 1
		}
	}
	return out
}

// skipQuoted returns the index of the closing quote of the literal that
// opens at start. A doubled quote is an escaped quote.
func skipQuoted(text string, start int, quote byte) int {
	for i := start + 1; i < len(text); i++ {
		if text[i] != quote {
			continue
		}
		if i+1 < len(text) && text[i+1] == quote {
			i++
			continue
		}
		return i
	}
	return len(text) - 1
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9' || c == '_' || c == '$' || c == '#'
}
