package transform

import (
	"sort"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
)

// edit is a single text splice: replace source[start:end) with text.
// start == end is a pure insertion.
type edit struct {
	start int
	end   int
	text  string
}

// editList accumulates splices produced by the rewrite passes over one
// parse of the source. Offsets always refer to the original text, so the
// passes can run independently; application happens once, back to front.
type editList struct {
	src   string
	lines []int // byte offset of each line start
	edits []edit
}

func newEditList(src string) *editList {
	lines := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &editList{src: src, lines: lines}
}

// offset converts a 1-based goja file.Idx to a 0-based byte offset.
func (e *editList) offset(idx file.Idx) int {
	o := int(idx) - 1
	if o < 0 {
		o = 0
	}
	if o > len(e.src) {
		o = len(e.src)
	}
	return o
}

// lineOf returns the 1-based line number containing idx.
func (e *editList) lineOf(idx file.Idx) int {
	o := e.offset(idx)
	n := sort.Search(len(e.lines), func(i int) bool { return e.lines[i] > o })
	return n
}

// slice returns the original source between two node indices.
func (e *editList) slice(from, to file.Idx) string {
	return e.src[e.offset(from):e.offset(to)]
}

func (e *editList) replace(from, to file.Idx, text string) {
	e.edits = append(e.edits, edit{start: e.offset(from), end: e.offset(to), text: text})
}

func (e *editList) insert(at file.Idx, text string) {
	o := e.offset(at)
	e.edits = append(e.edits, edit{start: o, end: o, text: text})
}

// statementEnd returns the 0-based offset just past a statement, swallowing
// any trailing semicolon so inserted closers land after it.
func (e *editList) statementEnd(s ast.Node) int {
	o := e.offset(s.Idx1())
	j := o
	for j < len(e.src) && (e.src[j] == ' ' || e.src[j] == '\t') {
		j++
	}
	if j < len(e.src) && e.src[j] == ';' {
		return j + 1
	}
	return o
}

func (e *editList) insertOffset(at int, text string) {
	e.edits = append(e.edits, edit{start: at, end: at, text: text})
}

// apply splices all edits into the source. Edits are applied back to front
// so earlier offsets stay valid; overlapping replacements are a pass bug and
// resolve last-wins by position.
func (e *editList) apply() string {
	sorted := make([]edit, len(e.edits))
	copy(sorted, e.edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].start != sorted[j].start {
			return sorted[i].start > sorted[j].start
		}
		return sorted[i].end > sorted[j].end
	})

	var b strings.Builder
	out := e.src
	for _, ed := range sorted {
		if ed.start > len(out) || ed.end > len(out) || ed.start > ed.end {
			continue
		}
		b.Reset()
		b.Grow(len(out) - (ed.end - ed.start) + len(ed.text))
		b.WriteString(out[:ed.start])
		b.WriteString(ed.text)
		b.WriteString(out[ed.end:])
		out = b.String()
	}
	return out
}
