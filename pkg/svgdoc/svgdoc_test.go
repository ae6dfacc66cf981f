package svgdoc

import (
	"strings"
	"testing"
)

const sample = `<svg xmlns="http://www.w3.org/2000/svg">
  <defs><clipPath id="c0"/></defs>
  <g id="wave"><path d="m 10,10 1,1"/></g>
  <g id="label"><text transform="matrix(1,0,0,1,500,300)">II</text></g>
  <path d="m 5,5 0,-10" id="lone"/>
  <text>aVR</text>
</svg>`

func mustParse(t *testing.T, s string) Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestParseRejectsNonSVG(t *testing.T) {
	if _, err := Parse(strings.NewReader("<html><body>hello</body></html>")); err == nil {
		t.Fatal("expected error for document without svg root")
	}
}

func TestFindByTag(t *testing.T) {
	doc := mustParse(t, sample)

	if got := len(doc.Find("path")); got != 2 {
		t.Errorf("Find(path) = %d nodes, want 2", got)
	}
	if got := len(doc.Find("text")); got != 2 {
		t.Errorf("Find(text) = %d nodes, want 2", got)
	}
}

func TestAttrAndText(t *testing.T) {
	doc := mustParse(t, sample)

	p := doc.Find("path")[0]
	d, ok := p.Attr("d")
	if !ok || d != "m 10,10 1,1" {
		t.Errorf("Attr(d) = %q, %v", d, ok)
	}
	if _, ok := p.Attr("missing"); ok {
		t.Error("Attr(missing) should not exist")
	}

	txt := doc.Find("text")[0]
	if got := txt.Text(); got != "II" {
		t.Errorf("Text() = %q, want %q", got, "II")
	}
	tr, ok := txt.Attr("transform")
	if !ok || tr != "matrix(1,0,0,1,500,300)" {
		t.Errorf("Attr(transform) = %q, %v", tr, ok)
	}
}

func TestNavigation(t *testing.T) {
	doc := mustParse(t, sample)

	p := doc.Find("path")[0]
	parent := p.Parent()
	if parent == nil || parent.Tag() != "g" {
		t.Fatalf("Parent() = %v", parent)
	}

	next := parent.NextElement()
	if next == nil || next.Tag() != "g" {
		t.Fatalf("NextElement() = %v", next)
	}
	if got := len(next.Find("text")); got != 1 {
		t.Errorf("label group Find(text) = %d, want 1", got)
	}

	if prev := next.PrevElement(); prev != parent {
		t.Error("PrevElement of the label group should equal the wave group")
	}
}

func TestNodeIdentityIsStable(t *testing.T) {
	doc := mustParse(t, sample)

	a := doc.Find("path")[0]
	b := doc.Find("path")[0]
	if a != b {
		t.Error("the same element found twice should compare equal")
	}

	seen := map[Node]bool{a: true}
	if !seen[b] {
		t.Error("Node should be usable as a map key with stable identity")
	}
}

func TestDetach(t *testing.T) {
	doc := mustParse(t, sample)

	for _, d := range doc.Find("defs") {
		d.Detach()
	}
	if got := len(doc.Find("defs")); got != 0 {
		t.Errorf("Find(defs) after Detach = %d, want 0", got)
	}
	// The rest of the tree is untouched.
	if got := len(doc.Find("path")); got != 2 {
		t.Errorf("Find(path) = %d, want 2", got)
	}
}
