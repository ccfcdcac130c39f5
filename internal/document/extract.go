package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DiagnosticField is the key under which a degraded extraction records why no document
// could be recovered and what the original input was.
const DiagnosticField = "_extraction"

// ErrExtractionDegraded matches every *ExtractionDegradedError.
var ErrExtractionDegraded = errors.New("extraction degraded")

// ExtractionDegradedError describes a sentinel document produced in place of a real one.
type ExtractionDegradedError struct {
	Reason string
	Raw    string
}

func (e *ExtractionDegradedError) Error() string {
	return fmt.Sprintf("extraction degraded: %s", e.Reason)
}

func (e *ExtractionDegradedError) Is(target error) bool {
	return target == ErrExtractionDegraded
}

// Reasons recorded in the diagnostic field.
const (
	ReasonEmpty       = "empty input"
	ReasonRefusal     = "refusal"
	ReasonNoObject    = "no object literal found"
	ReasonUnparseable = "unparseable object literal"
	ReasonNotAnObject = "structured input is not an object"
	ReasonUnsupported = "unsupported structured input"
	ReasonNoSections  = "no labeled sections parsed"
	ReasonInternal    = "internal extraction failure"
)

const maxDiagnosticBytes = 64 << 10

type extractConfig struct {
	skeleton Object
}

// ExtractOption configures Extract and ParseSections.
type ExtractOption func(*extractConfig)

// WithSkeleton sets the default document returned, together with the diagnostic field,
// when nothing can be recovered.
func WithSkeleton(skeleton Object) ExtractOption {
	return func(c *extractConfig) { c.skeleton = skeleton }
}

func newExtractConfig(opts []ExtractOption) extractConfig {
	var cfg extractConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// refusalPhrases mark model output that declined the request instead of answering it.
var refusalPhrases = []string{
	"i am unable to",
	"i'm unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
	"as an ai language model",
}

// Extract recovers a candidate document from raw generator output. It never fails: when
// no object can be recovered the returned document is the configured skeleton plus a
// DiagnosticField entry, which callers detect with Degraded.
func Extract(raw any, opts ...ExtractOption) (doc Object) {
	cfg := newExtractConfig(opts)
	defer func() {
		if r := recover(); r != nil {
			doc = sentinel(cfg, fmt.Sprint(raw), fmt.Sprintf("%s: %v", ReasonInternal, r))
		}
	}()

	switch t := raw.(type) {
	case nil:
		return sentinel(cfg, "", ReasonEmpty)
	case string:
		return extractText(t, cfg)
	case []byte:
		return extractText(string(t), cfg)
	case json.RawMessage:
		return extractText(string(t), cfg)
	}

	v, err := FromAny(raw)
	if err != nil {
		return sentinel(cfg, describeRaw(raw), fmt.Sprintf("%s: %v", ReasonUnsupported, err))
	}
	obj, ok := v.(Object)
	if !ok {
		return sentinel(cfg, describeRaw(raw), fmt.Sprintf("%s (got %s)", ReasonNotAnObject, v.Kind()))
	}
	return obj
}

// Degraded reports whether doc is a sentinel produced by a failed extraction.
func Degraded(doc Object) (*ExtractionDegradedError, bool) {
	diag, ok := doc.GetObject(DiagnosticField)
	if !ok {
		if _, present := doc[DiagnosticField]; !present {
			return nil, false
		}
		return &ExtractionDegradedError{Reason: "malformed diagnostic"}, true
	}
	reason, _ := diag.GetString("reason")
	raw, _ := diag.GetString("raw")
	return &ExtractionDegradedError{Reason: reason, Raw: raw}, true
}

func extractText(text string, cfg extractConfig) Object {
	if strings.TrimSpace(text) == "" {
		return sentinel(cfg, text, ReasonEmpty)
	}

	// Every candidate is tried as strict JSON before any is tried as a relaxed literal.
	var candidates []string
	for _, source := range candidateSources(text) {
		candidates = append(candidates, scanObjects(source)...)
	}
	var strictErrs []error
	for _, candidate := range candidates {
		obj, err := parseStrict(candidate)
		if err == nil {
			return obj
		}
		strictErrs = append(strictErrs, err)
	}
	var lastErr error
	for i, candidate := range candidates {
		obj, err := parseRelaxed(candidate)
		if err == nil {
			return obj
		}
		lastErr = fmt.Errorf("strict: %v; relaxed: %v", strictErrs[i], err)
	}

	if isRefusal(text) {
		return sentinel(cfg, text, ReasonRefusal)
	}
	if len(candidates) == 0 {
		return sentinel(cfg, text, ReasonNoObject)
	}
	return sentinel(cfg, text, fmt.Sprintf("%s: %v", ReasonUnparseable, lastErr))
}

var fenceRegex = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")

// candidateSources returns the bodies of any code fences followed by the full text.
func candidateSources(text string) []string {
	var sources []string
	for _, m := range fenceRegex.FindAllStringSubmatch(text, -1) {
		if body := strings.TrimSpace(m[1]); body != "" {
			sources = append(sources, body)
		}
	}
	return append(sources, text)
}

// maxRescans bounds how many unbalanced braces in prose are skipped before scanning
// stops, keeping the scan linear in the input size.
const maxRescans = 16

// scanObjects returns the top-level object literals of s in order of appearance. Braces
// are matched by depth, and quoted strings inside an object (double or single quoted)
// are skipped so braces within string values do not end the object early. Quote
// characters outside any object are prose and are ignored.
func scanObjects(s string) []string {
	var candidates []string
	for rescans := 0; rescans <= maxRescans; rescans++ {
		found, unclosed := scanBalanced(s)
		candidates = append(candidates, found...)
		if unclosed < 0 {
			break
		}
		// An unbalanced brace in prose swallowed the rest of the input; rescan after it.
		s = s[unclosed+1:]
	}
	return candidates
}

// scanBalanced returns the balanced objects of s and the offset of an object left open
// at the end of s, or -1.
func scanBalanced(s string) ([]string, int) {
	var candidates []string
	depth := 0
	start := -1
	var quote byte
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]
		if quote != 0 {
			switch {
			case escape:
				escape = false
			case b == '\\':
				escape = true
			case b == quote:
				quote = 0
			}
			continue
		}
		switch b {
		case '"', '\'':
			if depth > 0 {
				quote = b
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidates = append(candidates, s[start:i+1])
				start = -1
			}
		}
	}
	if depth > 0 && start >= 0 {
		return candidates, start
	}
	return candidates, -1
}

func parseStrict(candidate string) (Object, error) {
	v, err := Parse([]byte(candidate))
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("decoded %s, want object", v.Kind())
	}
	return obj, nil
}

func isRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func sentinel(cfg extractConfig, raw, reason string) Object {
	doc := cfg.skeleton.Clone()
	if doc == nil {
		doc = Object{}
	}
	if len(raw) > maxDiagnosticBytes {
		raw = strings.ToValidUTF8(raw[:maxDiagnosticBytes], "")
	}
	doc[DiagnosticField] = Object{
		"reason": String(reason),
		"raw":    String(raw),
	}
	return doc
}

func describeRaw(raw any) string {
	if b, err := json.Marshal(raw); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", raw)
}
