package parse

import (
	"bufio"
	"io"
)

// Write writes tags to w, one line each.
func Write(w io.Writer, tags []Tag) error {
	bw := bufio.NewWriter(w)
	for _, t := range tags {
		if _, err := bw.WriteString(t.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
