package release

import (
	"fmt"
	"strings"

	"pault.ag/go/debian/control"
)

// normalize converts CRLF line endings and checks that every line is a
// field, a continuation or a paragraph break before the control decoder
// sees the text.
func normalize(kind, text string) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	for number, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}

		if !strings.Contains(line, ":") {
			return "", fmt.Errorf("%s line %d %q: %w", kind, number+1, line, ErrMalformedLine)
		}
	}

	return text, nil
}

// fileDigest is one "<digest> <size> <path>" line of a Release hash section.
type fileDigest struct {
	control.SHA256FileHash
}

// UnmarshalControl rejects short lines and collapses repeated blanks before
// handing the line to the control package.
func (d *fileDigest) UnmarshalControl(line string) error {
	fields := strings.Fields(line)

	switch {
	case len(fields) == 0:
		return nil
	case len(fields) < 3:
		return fmt.Errorf("digest line %q: %w", line, ErrMalformedLine)
	}

	return d.SHA256FileHash.UnmarshalControl(strings.Join(fields, " "))
}
