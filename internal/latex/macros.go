package latex

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ExpandMacros replaces every macro invocation in tex with its definition,
// substituting #1..#9 with the invocation's arguments. Expanded text is
// rescanned, so macros may use other macros. limit caps the total number
// of expansions.
func ExpandMacros(tex string, macros Macros, limit int) (string, error) {
	if len(macros) == 0 {
		return tex, nil
	}
	budget := limit
	return expand(tex, macros, &budget)
}

func expand(tex string, macros Macros, budget *int) (string, error) {
	var b strings.Builder
	b.Grow(len(tex))

	for i := 0; i < len(tex); {
		if tex[i] != '\\' {
			b.WriteByte(tex[i])
			i++
			continue
		}

		name, n := controlSequence(tex[i:])
		i += n
		def, ok := macros[name]
		if !ok {
			b.WriteString(name)
			continue
		}

		*budget--
		if *budget < 0 {
			return "", fmt.Errorf("%w: %s", ErrMacroLimitExceeded, name)
		}

		args := make([]string, macroArity(def))
		for k := range args {
			arg, m, err := macroArgument(tex[i:])
			if err != nil {
				return "", fmt.Errorf("%w: %s expects %d", ErrMacroArgument, name, len(args))
			}
			args[k] = arg
			i += m
		}

		body, err := expand(substituteArgs(def, args), macros, budget)
		if err != nil {
			return "", err
		}
		b.WriteString(body)
	}

	return b.String(), nil
}

// controlSequence reads a control word (\name) or control symbol (\x) at
// the start of s, which must begin with a backslash. A lone trailing
// backslash is returned as-is.
func controlSequence(s string) (name string, n int) {
	if len(s) < 2 {
		return s, len(s)
	}
	if !isLetter(s[1]) {
		_, size := utf8.DecodeRuneInString(s[1:])
		return s[:1+size], 1 + size
	}
	n = 2
	for n < len(s) && isLetter(s[n]) {
		n++
	}
	return s[:n], n
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// macroArity returns the highest #N referenced by def.
func macroArity(def string) int {
	arity := 0
	for i := 0; i+1 < len(def); i++ {
		if def[i] != '#' {
			continue
		}
		if c := def[i+1]; c >= '1' && c <= '9' {
			if n := int(c - '0'); n > arity {
				arity = n
			}
		}
		i++
	}
	return arity
}

// macroArgument reads one argument: a braced group (braces stripped) or a
// single token, after optional spaces.
func macroArgument(s string) (arg string, n int, err error) {
	skip := len(s) - len(strings.TrimLeft(s, " \t\n"))
	s = s[skip:]
	if s == "" {
		return "", 0, ErrMacroArgument
	}
	switch s[0] {
	case '{':
		arg, m, err := groupArgument(s)
		return arg, skip + m, err
	case '}':
		return "", 0, ErrMacroArgument
	case '\\':
		name, m := controlSequence(s)
		return name, skip + m, nil
	default:
		_, size := utf8.DecodeRuneInString(s)
		return s[:size], skip + size, nil
	}
}

// groupArgument reads a balanced {...} group at the start of s (after
// optional spaces) and returns its contents.
func groupArgument(s string) (arg string, n int, err error) {
	skip := len(s) - len(strings.TrimLeft(s, " \t\n"))
	s = s[skip:]
	if s == "" || s[0] != '{' {
		return "", 0, ErrUnbalancedBraces
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++ // escaped character, including \{ and \}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[1:i], skip + i + 1, nil
			}
		}
	}
	return "", 0, ErrUnbalancedBraces
}

// substituteArgs replaces #N with args[N-1] and ## with #.
func substituteArgs(def string, args []string) string {
	if len(args) == 0 && !strings.Contains(def, "##") {
		return def
	}
	var b strings.Builder
	for i := 0; i < len(def); i++ {
		if def[i] != '#' || i+1 == len(def) {
			b.WriteByte(def[i])
			continue
		}
		next := def[i+1]
		switch {
		case next == '#':
			b.WriteByte('#')
			i++
		case next >= '1' && next <= '9' && int(next-'0') <= len(args):
			b.WriteString(args[next-'1'])
			i++
		default:
			b.WriteByte('#')
		}
	}
	return b.String()
}
