package interpreter

import "unicode"

// Command is a tokenized input line. An empty Args is a valid, no-op
// command.
type Command struct {
	Args []string
}

// Name returns the first argument, or "" for an empty command.
func (c Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// Tokenize splits line into arguments. It never fails.
//
// Whitespace separates arguments. A single or double quote at the start of
// an argument quotes it up to the matching quote or the end of the line;
// inside, whitespace is literal and a backslash takes the next character
// verbatim, except that \n becomes a newline. A quoted argument may be
// empty. Quotes and backslashes inside an unquoted argument are ordinary
// characters, and text right after a closing quote starts a new argument.
func Tokenize(line string) Command {
	var (
		args    []string
		cur     []rune
		inField bool
		quote   rune
		escaped bool
	)

	emit := func() {
		args = append(args, string(cur))
		cur = cur[:0]
		inField = false
		quote = 0
	}

	for _, r := range line {
		switch {
		case escaped:
			if r == 'n' {
				r = '\n'
			}
			cur = append(cur, r)
			escaped = false

		case quote != 0:
			switch r {
			case '\\':
				escaped = true
			case quote:
				emit()
			default:
				cur = append(cur, r)
			}

		case inField:
			if unicode.IsSpace(r) {
				emit()
				continue
			}
			cur = append(cur, r)

		case unicode.IsSpace(r):

		case r == '"' || r == '\'':
			inField = true
			quote = r

		default:
			inField = true
			cur = append(cur, r)
		}
	}

	if inField {
		emit()
	}

	return Command{Args: args}
}
