package mirgen

import (
	"fmt"
	"io"

	"github.com/gointercept/compiler/pkg/mir"
)

// WriteCFGDot writes fn's control-flow graph in dot format, for the
// driver's --print-dot-cfg debug mode (SPEC_FULL.md §12).
func WriteCFGDot(w io.Writer, fn *mir.Function) {
	idx := blockIndices(fn)
	fmt.Fprintf(w, "digraph %s {\n", dotID(fn.Name))
	for i, b := range fn.Blocks {
		label := fmt.Sprintf("bb%d", i)
		if b.Trampoline {
			label += " (trampoline)"
		}
		fmt.Fprintf(w, "  bb%d [label=%q];\n", i, label)
		for _, s := range b.Succs {
			fmt.Fprintf(w, "  bb%d -> bb%d;\n", i, idx[s])
		}
	}
	fmt.Fprintln(w, "}")
}

// WriteDominanceJoinDot writes fn's dominance-join points in dot
// format, for --print-dot-dj (SPEC_FULL.md §12). A join point is any
// block with more than one predecessor; full dominance-frontier
// computation is a backend concern this core does not implement
// (spec.md §1 Non-goals), so this renders exactly the join structure
// the phi-to-copy lowering pass itself reasons about.
func WriteDominanceJoinDot(w io.Writer, fn *mir.Function) {
	idx := blockIndices(fn)
	fmt.Fprintf(w, "digraph %s_dj {\n", dotID(fn.Name))
	for i, b := range fn.Blocks {
		shape := "box"
		if len(b.Preds) > 1 {
			shape = "doublecircle"
		}
		fmt.Fprintf(w, "  bb%d [label=\"bb%d\", shape=%s];\n", i, i, shape)
		for _, p := range b.Preds {
			fmt.Fprintf(w, "  bb%d -> bb%d;\n", idx[p], i)
		}
	}
	fmt.Fprintln(w, "}")
}

func blockIndices(fn *mir.Function) map[*mir.Block]int {
	idx := make(map[*mir.Block]int, len(fn.Blocks))
	for i, b := range fn.Blocks {
		idx[b] = i
	}
	return idx
}

func dotID(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "fn"
	}
	return string(out)
}
