package drive

import "strings"

// queryEscaper escapes the characters the Drive query grammar treats
// specially inside single-quoted string literals.
var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Literal quotes s as a Drive query string literal.
func Literal(s string) string {
	return "'" + queryEscaper.Replace(s) + "'"
}

// And joins non-empty clauses with "and". Clauses are not parenthesized;
// pass Or(...) results for disjunctions.
func And(clauses ...string) string {
	return join(clauses, " and ")
}

// Or joins non-empty clauses with "or" and wraps the result in parentheses
// so it can be embedded in a conjunction. A single clause is returned as is.
func Or(clauses ...string) string {
	parts := nonEmpty(clauses)

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, " or ") + ")"
	}
}

func join(clauses []string, sep string) string {
	return strings.Join(nonEmpty(clauses), sep)
}

func nonEmpty(clauses []string) []string {
	out := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			out = append(out, c)
		}
	}

	return out
}
