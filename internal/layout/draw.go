package layout

import (
	"fmt"
	"strings"
)

// Draw renders a layout as an indented tree for debugging. Selected
// children are marked with [x].
func (s *System) Draw(id LayoutID) string {
	t := s.tree(id)
	if t == nil {
		return ""
	}
	var b strings.Builder
	t.draw(&b, t.root, "", "")
	return b.String()
}

func (t *Tree) draw(b *strings.Builder, id NodeID, prefix, childPrefix string) {
	n := t.nodes[id]
	mark := ""
	if p := t.parent(id); p != 0 {
		mark = "[ ] "
		if t.localSelection(p) == id {
			mark = "[x] "
		}
	}
	b.WriteString(prefix)
	b.WriteString(mark)
	if n.hasWindow {
		fmt.Fprintf(b, "%s [size %.3g]", n.window, n.size)
	} else {
		fmt.Fprintf(b, "%s [size %.3g total %.3g]", n.kind, n.size, n.total)
	}
	if n.fullscreen {
		b.WriteString(" fullscreen")
	}
	b.WriteByte('\n')
	for i, c := range n.children {
		if i == len(n.children)-1 {
			t.draw(b, c, childPrefix+"└── ", childPrefix+"    ")
		} else {
			t.draw(b, c, childPrefix+"├── ", childPrefix+"│   ")
		}
	}
}
