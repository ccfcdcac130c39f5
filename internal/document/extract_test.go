package document

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Object {
	return Object{
		"title":  String(`use {braces} and 'quotes' and "escapes" }`),
		"count":  Number(2),
		"ratio":  Number(0.25),
		"active": Bool(true),
		"nested": Object{
			"list":  List{String("a"), Null{}, Number(-3)},
			"empty": Object{},
		},
	}
}

func TestExtract_RecoversEmbeddedObject(t *testing.T) {
	encoded, err := json.Marshal(sampleDocument())
	require.NoError(t, err)

	wrappers := map[string]string{
		"bare":            "%s",
		"prose":           "Sure! Here's the analysis you asked for: %s\nLet me know {if} anything else is needed.",
		"json fence":      "```json\n%s\n```",
		"plain fence":     "Result:\n```\n%s\n```\nThat's all.",
		"fence and prose": "Thinking... {draft}\n```json\n%s\n```",
		"trailing brace":  "%s }} trailing commentary",
	}
	for name, wrapper := range wrappers {
		t.Run(name, func(t *testing.T) {
			raw := strings.Replace(wrapper, "%s", string(encoded), 1)
			doc := Extract(raw)

			_, degraded := Degraded(doc)
			require.False(t, degraded, "unexpected sentinel: %v", doc)
			if diff := cmp.Diff(sampleDocument(), doc); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_LiteralSyntax(t *testing.T) {
	raw := `Here you go: {'week_focus': 'Transport', 'done': True, 'skipped': False, 'extra': None,
	'items': [1, 2,], 'pair': (3, 4), 'note': 'it\'s "fine"',}`

	doc := Extract(raw)

	_, degraded := Degraded(doc)
	require.False(t, degraded, "unexpected sentinel: %v", doc)
	want := Object{
		"week_focus": String("Transport"),
		"done":       Bool(true),
		"skipped":    Bool(false),
		"extra":      Null{},
		"items":      List{Number(1), Number(2)},
		"pair":       List{Number(3), Number(4)},
		"note":       String(`it's "fine"`),
	}
	assert.Empty(t, cmp.Diff(want, doc))
}

func TestExtract_SkipsPlaceholderBeforeObject(t *testing.T) {
	doc := Extract(`Fill in {placeholder} first, then: {"a": 1}`)
	assert.Empty(t, cmp.Diff(Object{"a": Number(1)}, doc))
}

func TestExtract_StrictObjectBeatsEarlierLiteral(t *testing.T) {
	inputs := []string{
		`Use the shape {title: string}. Result: {"title": "Bike"}`,
		"Schema hint {title: string}\n```json\n{\"title\": \"Bike\"}\n```",
	}
	for _, raw := range inputs {
		doc := Extract(raw)
		assert.Empty(t, cmp.Diff(Object{"title": String("Bike")}, doc), raw)
	}
}

func TestExtract_UnbalancedProseIsBounded(t *testing.T) {
	raw := strings.Repeat("{ it's ", 20000) + `{"a": 1}`

	start := time.Now()
	doc := Extract(raw)
	elapsed := time.Since(start)

	_, degraded := Degraded(doc)
	assert.True(t, degraded)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestExtract_StructuredInput(t *testing.T) {
	doc := Extract(map[string]any{
		"score": 7,
		"tags":  []string{"diet", "energy"},
		"meta":  map[string]any{"ok": true},
	})

	want := Object{
		"score": Number(7),
		"tags":  List{String("diet"), String("energy")},
		"meta":  Object{"ok": Bool(true)},
	}
	assert.Empty(t, cmp.Diff(want, doc))
}

func TestExtract_StructuredNonObject(t *testing.T) {
	doc := Extract([]any{1, 2})

	diag, degraded := Degraded(doc)
	require.True(t, degraded)
	assert.Contains(t, diag.Reason, ReasonNotAnObject)
}

func TestExtract_NeverPanics(t *testing.T) {
	inputs := []any{
		nil,
		"",
		"   \n\t",
		"no braces at all",
		"{not: [valid",
		"{{{{",
		"}}}{",
		"```json\n```",
		[]byte("{\"unterminated\": \"string}"),
		make(chan int),
		struct{ A int }{A: 1},
	}
	for _, in := range inputs {
		require.NotPanics(t, func() {
			doc := Extract(in)
			require.NotNil(t, doc)
			_, degraded := Degraded(doc)
			assert.True(t, degraded, "input %#v should degrade", in)
		})
	}
}

func TestExtract_Refusal(t *testing.T) {
	raw := "I'm unable to produce a plan for that request."
	doc := Extract(raw)

	diag, degraded := Degraded(doc)
	require.True(t, degraded)
	assert.Equal(t, ReasonRefusal, diag.Reason)
	assert.Equal(t, raw, diag.Raw)
	assert.ErrorIs(t, diag, ErrExtractionDegraded)
}

func TestExtract_SentinelUsesSkeleton(t *testing.T) {
	skeleton := Object{
		"challenges":              List{},
		"total_potential_savings": Number(0),
	}

	doc := Extract("nothing useful here", WithSkeleton(skeleton))

	diag, degraded := Degraded(doc)
	require.True(t, degraded)
	assert.Equal(t, ReasonNoObject, diag.Reason)
	assert.Equal(t, List{}, doc["challenges"])
	assert.Equal(t, Number(0), doc["total_potential_savings"])
	assert.NotContains(t, skeleton, DiagnosticField, "skeleton must not be mutated")
}

func TestExtract_UnparseableReason(t *testing.T) {
	doc := Extract(`prefix {"a": [1, 2} suffix`)

	diag, degraded := Degraded(doc)
	require.True(t, degraded)
	assert.True(t, strings.HasPrefix(diag.Reason, ReasonUnparseable), diag.Reason)
}

func TestExtract_TruncatesLargeRaw(t *testing.T) {
	raw := strings.Repeat("é", maxDiagnosticBytes)
	doc := Extract(raw)

	diag, degraded := Degraded(doc)
	require.True(t, degraded)
	assert.LessOrEqual(t, len(diag.Raw), maxDiagnosticBytes)
	assert.True(t, strings.HasPrefix(raw, diag.Raw))
}

func TestScanObjects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"none", "plain text", nil},
		{"single", `x {"a": 1} y`, []string{`{"a": 1}`}},
		{"nested", `{"a": {"b": {}}}`, []string{`{"a": {"b": {}}}`}},
		{"brace in string", `{"a": "}"}`, []string{`{"a": "}"}`}},
		{"escaped quote", `{"a": "\"}"}`, []string{`{"a": "\"}"}`}},
		{"single quoted", `{'a': '}'}`, []string{`{'a': '}'}`}},
		{"two objects", `{"a": 1} and {"b": 2}`, []string{`{"a": 1}`, `{"b": 2}`}},
		{"apostrophe in prose", `it's {"a": 1}`, []string{`{"a": 1}`}},
		{"unbalanced prefix", `{ oops {"a": 1}`, []string{`{"a": 1}`}},
		{"rescans are capped", strings.Repeat("{ ", maxRescans+1) + `{"a": 1}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanObjects(tt.in))
		})
	}
}

func TestNormalizeLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{'a': True}`, `{"a": true}`},
		{`{'a': [1, 2,],}`, `{"a": [1, 2]}`},
		{`{'a': (1, 2)}`, `{"a": [1, 2]}`},
		{`{'a': 'say "hi"'}`, `{"a": "say \"hi\""}`},
		{`{'a': 'it\'s'}`, `{"a": "it's"}`},
		{`{"None": "True"}`, `{"None": "True"}`},
		{`{'Trueish': None}`, `{"Trueish": null}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeLiteral(tt.in), tt.in)
	}
}
