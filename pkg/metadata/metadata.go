// Package metadata classifies the free-floating text of a converted chart
// page into a structured record using positional heuristics.
//
// The source charts come off a fixed print template, so nothing on the page
// is tagged: a text element is "the patient ID" only because of where it
// sits. Each text node is reduced to a quantized grid cell (its transform
// translation floor-divided by 100, merging neighbouring glyph runs into one
// logical field) and an ordered list of extraction rules reads fields off
// known rows, columns and cells.
//
// Every rule is independent and optional: a rule that finds nothing on this
// page contributes nothing, and classification always completes. The layout
// constants below are literal calibration values of the target template and
// are deliberately not configurable.
package metadata

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ekglab/ekgstore/pkg/svgdoc"
)

// Record maps normalized field names to raw string values.
type Record map[string]string

// gridDivisor merges nearby glyph positions into one logical grid cell.
const gridDivisor = 100

// Fixed layout of the source print template, in grid cells.
const (
	identityRowY = 204 // Name, "ID: …", Date
	scaleRowY    = 259 // Scale_x, Scale_y, Signal

	remarksColX = 119 // free-text remarks column; last node is a footer

	anchorColX     = 5 // left-edge measurement labels
	anchorSpanMaxX = 40

	vitalsRowY = 250 // "key: value" row
	qrsColX    = 140 // "key: value" column, bounded vertically
	qrsColMinY = 205
	qrsColMaxY = 245
	deviceColX = 12 // "key: value" column
)

// Demographic single-cell lookups.
var demographicCells = []struct {
	key  string
	x, y int
}{
	{"Sex", 96, 209},
	{"Ethnicity", 96, 214},
	{"Weight", 110, 209},
	{"Height", 110, 214},
}

// textNode is one text element reduced to its quantized grid position.
type textNode struct {
	x, y int
	text string
}

// Classify extracts the metadata record from the document's text elements.
// Rules run in a fixed order; a later rule writing an existing key wins.
func Classify(doc svgdoc.Document) Record {
	nodes := textNodes(doc)
	rec := Record{}

	for _, rule := range []func([]textNode, Record){
		identityRule,
		demographicsRule,
		remarksRule,
		anchorRule,
		scaleRule,
		keyValueRegionsRule,
	} {
		rule(nodes, rec)
	}

	return normalizeKeys(rec)
}

var (
	matrixRe    = regexp.MustCompile(`matrix\(\s*-?[0-9.]+[,\s]+-?[0-9.]+[,\s]+-?[0-9.]+[,\s]+-?[0-9.]+[,\s]+(-?[0-9.]+)[,\s]+(-?[0-9.]+)\s*\)`)
	translateRe = regexp.MustCompile(`translate\(\s*(-?[0-9.]+)[,\s]+(-?[0-9.]+)\s*\)`)
)

// textNodes collects every text element with its grid position. Elements
// without a parseable transform default to cell (0,0).
func textNodes(doc svgdoc.Document) []textNode {
	var out []textNode
	for _, el := range doc.Find("text") {
		x, y := 0, 0
		if tr, ok := el.Attr("transform"); ok {
			x, y = gridPos(tr)
		}
		out = append(out, textNode{x: x, y: y, text: el.Text()})
	}
	return out
}

// gridPos parses the translation of a transform attribute and quantizes it.
func gridPos(transform string) (int, int) {
	m := matrixRe.FindStringSubmatch(transform)
	if m == nil {
		m = translateRe.FindStringSubmatch(transform)
	}
	if m == nil {
		return 0, 0
	}
	tx, errX := strconv.ParseFloat(m[1], 64)
	ty, errY := strconv.ParseFloat(m[2], 64)
	if errX != nil || errY != nil {
		return 0, 0
	}
	return quantize(tx), quantize(ty)
}

func quantize(v float64) int {
	return int(math.Floor(v / gridDivisor))
}

// row returns the nodes at grid row y, sorted by ascending x.
func row(nodes []textNode, y int) []textNode {
	var out []textNode
	for _, n := range nodes {
		if n.y == y {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].x < out[j].x })
	return out
}

// column returns the nodes at grid column x, sorted by ascending y.
func column(nodes []textNode, x int) []textNode {
	var out []textNode
	for _, n := range nodes {
		if n.x == x {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].y < out[j].y })
	return out
}

// cell returns the first node at the exact grid cell (x, y).
func cell(nodes []textNode, x, y int) (textNode, bool) {
	for _, n := range nodes {
		if n.x == x && n.y == y {
			return n, true
		}
	}
	return textNode{}, false
}

// identityRule reads Name, ID and Date off the identity row. The ID cell is
// printed as "ID: <value>"; only the value is kept.
func identityRule(nodes []textNode, rec Record) {
	r := row(nodes, identityRowY)
	if len(r) > 0 {
		rec["Name"] = r[0].text
	}
	if len(r) > 1 {
		if _, v, ok := strings.Cut(r[1].text, ":"); ok {
			rec["ID"] = strings.TrimSpace(v)
		}
	}
	if len(r) > 2 {
		rec["Date"] = r[2].text
	}
}

// demographicsRule performs the fixed single-cell lookups.
func demographicsRule(nodes []textNode, rec Record) {
	for _, c := range demographicCells {
		if n, ok := cell(nodes, c.x, c.y); ok {
			rec[c.key] = n.text
		}
	}
}

// remarksRule joins the remarks column, excluding the last node: the
// template always closes the column with a continuation footer.
func remarksRule(nodes []textNode, rec Record) {
	col := column(nodes, remarksColX)
	if len(col) == 0 {
		return
	}
	lines := make([]string, 0, len(col)-1)
	for _, n := range col[:len(col)-1] {
		lines = append(lines, n.text)
	}
	rec["Remarks"] = strings.Join(lines, "\n")
}

// anchorRule treats every node in the anchor column as the key of a
// measurement row: the nodes to its right (within the bounded span, sorted
// by x) form the value.
func anchorRule(nodes []textNode, rec Record) {
	for _, anchor := range column(nodes, anchorColX) {
		var cells []textNode
		for _, n := range nodes {
			if n.y == anchor.y && n.x >= anchorColX && n.x <= anchorSpanMaxX {
				cells = append(cells, n)
			}
		}
		sort.SliceStable(cells, func(i, j int) bool { return cells[i].x < cells[j].x })
		if len(cells) < 2 {
			continue
		}
		parts := make([]string, 0, len(cells)-1)
		for _, n := range cells[1:] {
			parts = append(parts, n.text)
		}
		rec[cells[0].text] = strings.Join(parts, " ")
	}
}

// scaleRule reads the three scale descriptors off the scale row.
func scaleRule(nodes []textNode, rec Record) {
	r := row(nodes, scaleRowY)
	for i, key := range []string{"Scale_x", "Scale_y", "Signal"} {
		if i < len(r) {
			rec[key] = r[i].text
		}
	}
}

// keyValueRegionsRule reads three template regions holding "key: value"
// text nodes. Regions are merged in order: a later region overwrites a
// same-named key from an earlier one.
func keyValueRegionsRule(nodes []textNode, rec Record) {
	regions := [][]textNode{
		row(nodes, vitalsRowY),
		boundedColumn(nodes, qrsColX, qrsColMinY, qrsColMaxY),
		column(nodes, deviceColX),
	}
	for _, region := range regions {
		for _, n := range region {
			k, v, ok := strings.Cut(n.text, ":")
			if !ok {
				continue
			}
			rec[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
}

// boundedColumn returns the nodes at column x with y in [minY, maxY],
// sorted by ascending y.
func boundedColumn(nodes []textNode, x, minY, maxY int) []textNode {
	var out []textNode
	for _, n := range nodes {
		if n.x == x && n.y >= minY && n.y <= maxY {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].y < out[j].y })
	return out
}

// keyCleanRe drops everything but word characters, digits, whitespace,
// hyphen, underscore and backslash.
var keyCleanRe = regexp.MustCompile(`[^\w\s\-\\]+`)

// normalizeKeys rewrites every key through keyCleanRe.
func normalizeKeys(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[keyCleanRe.ReplaceAllString(k, "")] = v
	}
	return out
}
