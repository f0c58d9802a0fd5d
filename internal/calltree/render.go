package calltree

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Render writes the forest as an indented report, one line per call with
// total and self durations. Children are indented under their caller.
func Render(w io.Writer, roots []*Node) error {
	var err error
	Visit(roots, func(n *Node, depth int) {
		if err != nil {
			return
		}
		name := n.Name
		if n.Package != "" {
			name = n.Package + "." + n.Name
		}
		_, err = fmt.Fprintf(
			w,
			"%s%s total=%s self=%s\n",
			strings.Repeat("  ", depth-1),
			name,
			time.Duration(n.DurationNS),
			time.Duration(n.SelfNS),
		)
	})
	return err
}
