package turn

import (
	"bufio"
	"errors"
	"strings"
	"unicode"

	"convi-text-pipeline/internal/models"
)

// ErrNoTurns is returned when a transcript contains no "Label: text" line.
var ErrNoTurns = errors.New("no speaker turns found: expected 'Speaker: text' lines")

// lineBreaks folds every line boundary recognised by the parser into "\n".
// "\r\n" must precede "\r" so it collapses to a single break.
var lineBreaks = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\v", "\n",
	"\f", "\n",
	"\x1c", "\n",
	"\x1d", "\n",
	"\x1e", "\n",
	"\u0085", "\n",
	"\u2028", "\n",
	"\u2029", "\n",
)

// Parse splits a raw transcript into ordered turns.
// Lines that do not start with a label continue the open turn, separated by
// a single space. Lines before the first label are discarded. Besides "\n",
// lines break on "\r", "\v", "\f", the file/group/record separators, NEL and
// the Unicode line and paragraph separators.
func Parse(transcript string) ([]models.RawTurn, error) {
	m := NewMachine()
	transcript = lineBreaks.Replace(transcript)

	sc := bufio.NewScanner(strings.NewReader(transcript))
	sc.Buffer(make([]byte, 0, 64*1024), len(transcript)+1)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if label, rest, ok := SplitLabel(line); ok {
			m.Label(label, rest)
			continue
		}
		m.Continue(line)
	}

	turns := m.Finish()
	if len(turns) == 0 {
		return nil, ErrNoTurns
	}
	return turns, nil
}

// SplitLabel classifies a trimmed line. A label is an ASCII letter followed by
// ASCII letters or whitespace, terminated by a colon. The returned label and
// remainder are both trimmed.
func SplitLabel(line string) (label, remainder string, ok bool) {
	for i, r := range line {
		switch {
		case r == ':':
			if i == 0 {
				return "", "", false
			}
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
		case isASCIILetter(r):
		case i > 0 && unicode.IsSpace(r):
		default:
			return "", "", false
		}
	}
	return "", "", false
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
