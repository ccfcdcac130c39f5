package document

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultSavingsKg is used for an item whose savings line is missing or unreadable.
const DefaultSavingsKg = 0.5

// Diagnostic is a non-fatal problem found while parsing labeled sections.
type Diagnostic struct {
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

var (
	numberedLineRegex = regexp.MustCompile(`^(\d+)\s*[.):]\s*(\D.*)$`)
	tierTitleRegex    = regexp.MustCompile(`(?i)^[\[(]?(easy|medium|hard)\b[\])]?\s*(?:[-–—:|]\s*)?(.*)$`)
	labelRegex        = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 /()&'₂-]{0,40}?)\s*:\s*(.*)$`)
	bulletRegex       = regexp.MustCompile(`^[-*•]\s+(.*)$`)
	savingsLabelRegex = regexp.MustCompile(`^(?:[a-z0-9₂ ]+\s+)?savings?(?:\s*\(.*\))?$`)
	totalLabelRegex   = regexp.MustCompile(`^(?:total|aggregate|overall)\b.*$`)
	numberRegex       = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)?`)
	decorationRegex   = regexp.MustCompile(`\*\*|__|` + "`")
)

// Top-level header labels, keyed by normalized label text.
var headerLabels = map[string]string{
	"week focus":           "week_focus",
	"weekly focus":         "week_focus",
	"week theme":           "week_focus",
	"theme":                "week_focus",
	"focus":                "week_focus",
	"priority area":        "priority_area",
	"priority":             "priority_area",
	"priority category":    "priority_area",
	"motivation message":   "motivation_message",
	"motivational message": "motivation_message",
	"closing message":      "motivation_message",
}

// Item body labels, keyed by normalized label text.
var itemLabels = map[string]string{
	"description":     "description",
	"category":        "category",
	"time":            "time_required",
	"time required":   "time_required",
	"time commitment": "time_required",
	"motivation":      "motivation",
	"why":             "motivation",
	"steps":           "steps",
	"deadline":        "deadline",
	"success metric":  "success_metrics",
	"success metrics": "success_metrics",
}

var categorySynonyms = map[string]string{
	"transport":      "transport",
	"transportation": "transport",
	"travel":         "transport",
	"commute":        "transport",
	"commuting":      "transport",
	"mobility":       "transport",
	"driving":        "transport",
	"car":            "transport",
	"diet":           "diet",
	"food":           "diet",
	"meal":           "diet",
	"meals":          "diet",
	"eating":         "diet",
	"nutrition":      "diet",
	"energy":         "energy",
	"home energy":    "energy",
	"home":           "energy",
	"electricity":    "energy",
	"heating":        "energy",
	"power":          "energy",
	"waste":          "waste",
	"recycling":      "waste",
	"plastic":        "waste",
	"plastics":       "waste",
	"consumption":    "consumption",
	"shopping":       "consumption",
	"purchasing":     "consumption",
	"goods":          "consumption",
}

// NormalizeCategory maps a free-text category onto the fixed category vocabulary. Text
// with no known synonym is returned lower-cased.
func NormalizeCategory(s string) string {
	key := strings.ToLower(strings.TrimSpace(strings.Trim(s, " .,;:!")))
	if c, ok := categorySynonyms[key]; ok {
		return c
	}
	for _, word := range strings.FieldsFunc(key, func(r rune) bool {
		return r == ' ' || r == '/' || r == '&' || r == ',' || r == '-'
	}) {
		if c, ok := categorySynonyms[word]; ok {
			return c
		}
	}
	return key
}

type sectionState int

const (
	stateHeader sectionState = iota
	stateItem
	stateSummary
)

type sectionBlock struct {
	line      int
	tier      string
	title     string
	fields    map[string]string
	steps     []string
	savings   *float64
	lastLabel string
	// stepList is set by a bare "Steps:" line; numbered lines without a tier then read as steps.
	stepList  bool
	malformed string
}

type sectionParser struct {
	state     sectionState
	header    map[string]string
	lastLabel string
	current   *sectionBlock
	items     List
	total     *float64
	diags     []Diagnostic
}

// ParseSections parses headed, itemized free text into a challenge plan candidate
// document. Malformed item blocks are skipped and reported as diagnostics; when no block
// survives, the result is a degraded sentinel (see Extract).
func ParseSections(raw string, opts ...ExtractOption) (Object, []Diagnostic) {
	cfg := newExtractConfig(opts)
	p := &sectionParser{header: map[string]string{}}

	for i, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		p.feed(i+1, cleanLine(line))
	}
	p.finishBlock()

	if len(p.items) == 0 {
		return sentinel(cfg, raw, ReasonNoSections), p.diags
	}
	return p.document(), p.diags
}

func cleanLine(line string) string {
	line = decorationRegex.ReplaceAllString(line, "")
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "#>")
	return strings.TrimSpace(line)
}

func (p *sectionParser) feed(n int, line string) {
	if line == "" {
		return
	}
	switch p.state {
	case stateHeader:
		p.onHeaderLine(n, line)
	case stateItem:
		p.onItemLine(n, line)
	case stateSummary:
		p.onSummaryLine(n, line)
	}
}

func (p *sectionParser) onHeaderLine(n int, line string) {
	if m := numberedLineRegex.FindStringSubmatch(line); m != nil {
		p.startBlock(n, m[2])
		return
	}
	body, _ := stripBullet(line)
	label, value, ok := splitLabel(body)
	if ok {
		if p.handleTotal(label, value) {
			return
		}
		if field, known := headerLabels[label]; known {
			p.header[field] = value
			p.lastLabel = field
			return
		}
	}
	if p.lastLabel != "" {
		p.header[p.lastLabel] = joinText(p.header[p.lastLabel], line)
	}
}

func (p *sectionParser) onItemLine(n int, line string) {
	b := p.current
	if m := numberedLineRegex.FindStringSubmatch(line); m != nil {
		if b.stepList && !tierTitleRegex.MatchString(m[2]) {
			b.steps = append(b.steps, strings.TrimSpace(m[2]))
			return
		}
		p.finishBlock()
		p.startBlock(n, m[2])
		return
	}

	body, bulleted := stripBullet(line)
	if label, value, ok := splitLabel(body); ok {
		if p.handleTotal(label, value) {
			p.finishBlock()
			p.state = stateSummary
			return
		}
		if field, known := headerLabels[label]; known {
			p.finishBlock()
			p.state = stateSummary
			p.header[field] = value
			p.lastLabel = field
			return
		}
		if savingsLabelRegex.MatchString(label) {
			if f, ok := parseNumber(value); ok {
				b.savings = &f
			} else {
				p.diags = append(p.diags, Diagnostic{Line: n, Message: fmt.Sprintf("unreadable savings %q, using default", value)})
			}
			b.lastLabel = ""
			b.stepList = false
			return
		}
		if field, known := itemLabels[label]; known {
			b.stepList = field == "steps" && value == ""
			if field == "steps" {
				b.steps = append(b.steps, splitSteps(value)...)
			} else {
				b.fields[field] = value
			}
			b.lastLabel = field
			return
		}
		if !bulleted {
			p.diags = append(p.diags, Diagnostic{Line: n, Message: fmt.Sprintf("ignored label %q", label)})
			return
		}
	}

	if bulleted {
		b.steps = append(b.steps, body)
		b.lastLabel = "steps"
		return
	}
	if b.lastLabel != "" && b.lastLabel != "steps" {
		b.fields[b.lastLabel] = joinText(b.fields[b.lastLabel], line)
	}
}

func (p *sectionParser) onSummaryLine(n int, line string) {
	if numberedLineRegex.MatchString(line) {
		p.diags = append(p.diags, Diagnostic{Line: n, Message: "item after summary ignored"})
		return
	}
	body, _ := stripBullet(line)
	label, value, ok := splitLabel(body)
	if ok {
		if p.handleTotal(label, value) {
			return
		}
		if field, known := headerLabels[label]; known {
			p.header[field] = value
			p.lastLabel = field
			return
		}
	}
	if p.lastLabel != "" {
		p.header[p.lastLabel] = joinText(p.header[p.lastLabel], line)
	}
}

// handleTotal records an explicit aggregate line and reports whether label was one.
func (p *sectionParser) handleTotal(label, value string) bool {
	if !totalLabelRegex.MatchString(label) || !strings.Contains(label, "saving") {
		return false
	}
	if f, ok := parseNumber(value); ok {
		p.total = &f
	}
	p.lastLabel = ""
	return true
}

func (p *sectionParser) startBlock(n int, rest string) {
	p.state = stateItem
	p.lastLabel = ""
	b := &sectionBlock{line: n, fields: map[string]string{}}
	m := tierTitleRegex.FindStringSubmatch(strings.TrimSpace(rest))
	switch {
	case m == nil:
		b.malformed = fmt.Sprintf("item header %q has no easy/medium/hard tier", rest)
	case strings.TrimSpace(m[2]) == "":
		b.malformed = "item header has no title"
	default:
		b.tier = strings.ToLower(m[1])
		b.title = strings.TrimSpace(m[2])
	}
	p.current = b
}

func (p *sectionParser) finishBlock() {
	b := p.current
	p.current = nil
	if b == nil {
		return
	}
	if b.malformed == "" && strings.TrimSpace(b.fields["description"]) == "" {
		b.malformed = "item has no description"
	}
	if b.malformed != "" {
		p.diags = append(p.diags, Diagnostic{Line: b.line, Message: "skipped block: " + b.malformed})
		return
	}

	savings := DefaultSavingsKg
	if b.savings != nil {
		savings = *b.savings
	}
	steps := b.steps
	if len(steps) == 0 {
		steps = []string{b.fields["description"]}
	}
	stepValues := make(List, 0, len(steps))
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			stepValues = append(stepValues, String(s))
		}
	}

	item := Object{
		"id":             String(fmt.Sprintf("challenge_%d", len(p.items)+1)),
		"title":          String(b.title),
		"description":    String(b.fields["description"]),
		"difficulty":     String(b.tier),
		"category":       String(NormalizeCategory(b.fields["category"])),
		"steps":          stepValues,
		"co2_savings_kg": Number(savings),
		"time_required":  String(b.fields["time_required"]),
		"motivation":     String(b.fields["motivation"]),
		"completed":      Bool(false),
	}
	if v, ok := b.fields["deadline"]; ok {
		item["deadline"] = String(v)
	}
	if v, ok := b.fields["success_metrics"]; ok {
		item["success_metrics"] = String(v)
	}
	p.items = append(p.items, item)
}

func (p *sectionParser) document() Object {
	total := 0.0
	if p.total != nil {
		total = *p.total
	} else {
		for _, it := range p.items {
			if f, ok := it.(Object).GetNumber("co2_savings_kg"); ok {
				total += f
			}
		}
		total = math.Round(total*1000) / 1000
	}
	return Object{
		"week_focus":              String(p.header["week_focus"]),
		"priority_area":           String(p.header["priority_area"]),
		"challenges":              p.items,
		"total_potential_savings": Number(total),
		"motivation_message":      String(p.header["motivation_message"]),
	}
}

// splitLabel splits "Label: value" and returns the normalized label.
func splitLabel(line string) (label, value string, ok bool) {
	m := labelRegex.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	label = strings.Join(strings.Fields(strings.ToLower(m[1])), " ")
	return label, strings.TrimSpace(m[2]), true
}

// stripBullet removes a leading "-", "*" or "•" marker and reports whether one was present.
func stripBullet(line string) (string, bool) {
	if m := bulletRegex.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return line, false
}

func splitSteps(value string) []string {
	var steps []string
	for _, s := range strings.Split(value, ";") {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

func parseNumber(s string) (float64, bool) {
	m := numberRegex.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func joinText(prev, next string) string {
	if prev == "" {
		return next
	}
	return prev + " " + next
}
