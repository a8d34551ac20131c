package query

import "strings"

// categoryKeys maps recognized key tokens (case-folded) to the term set
// they select. Singular and plural spellings are synonyms.
var categoryKeys = map[string]func(*Query) map[string]struct{}{
	"owner":     func(q *Query) map[string]struct{} { return q.owners },
	"owners":    func(q *Query) map[string]struct{} { return q.owners },
	"filename":  func(q *Query) map[string]struct{} { return q.names },
	"filenames": func(q *Query) map[string]struct{} { return q.names },
	"name":      func(q *Query) map[string]struct{} { return q.names },
	"names":     func(q *Query) map[string]struct{} { return q.names },
	"type":      func(q *Query) map[string]struct{} { return q.types },
	"types":     func(q *Query) map[string]struct{} { return q.types },
	"tag":       func(q *Query) map[string]struct{} { return q.tags },
	"tags":      func(q *Query) map[string]struct{} { return q.tags },
}

// Parse compiles a free-form search string into a Query.
//
// The input is split into tokens: bare words delimited by whitespace or
// ':', and quoted strings ("...") whose contents are taken verbatim,
// embedded whitespace and ':' included. The token list is then scanned
// left to right; a recognized category key followed by another token
// consumes both as key:value, any other token becomes a name term.
// Values are lower-cased.
//
// Parse never fails: malformed input degrades to name terms.
func Parse(input string) *Query {
	q := New()
	tokens := tokenize(input)
	for i := 0; i < len(tokens); i++ {
		selectSet, isKey := categoryKeys[strings.ToLower(tokens[i])]
		if isKey && i+1 < len(tokens) {
			selectSet(q)[strings.ToLower(tokens[i+1])] = struct{}{}
			i++
			continue
		}
		q.names[strings.ToLower(tokens[i])] = struct{}{}
	}
	return q
}

// tokenizer states
const (
	stateOutside = iota
	stateBare
	stateQuoted
)

// tokenize splits the input into bare and quoted tokens.
//
// Outside a token, whitespace is skipped and '"' opens a quoted token.
// Inside a bare token, whitespace or ':' terminates it (the delimiter is
// consumed). Inside a quoted token only '"' terminates. End of input
// flushes whatever is open. No empty tokens are ever emitted for bare
// words; an empty quoted string ("") is dropped as well since an empty
// term can match nothing useful.
func tokenize(input string) []string {
	var tokens []string
	var current strings.Builder
	state := stateOutside

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range input {
		switch state {
		case stateOutside:
			switch {
			case isSpace(r):
				// skip
			case r == '"':
				state = stateQuoted
			default:
				current.WriteRune(r)
				state = stateBare
			}
		case stateBare:
			if isSpace(r) || r == ':' {
				flush()
				state = stateOutside
			} else {
				current.WriteRune(r)
			}
		case stateQuoted:
			if r == '"' {
				flush()
				state = stateOutside
			} else {
				current.WriteRune(r)
			}
		}
	}
	flush()
	return tokens
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
