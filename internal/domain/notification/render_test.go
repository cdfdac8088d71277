package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_SubstitutesFromData(t *testing.T) {
	r := NewRenderer(nil)
	tpl := &Template{
		Subject: "Hello {{userName}}",
		Body:    "Your code is {{code}}",
	}

	content := r.Render(tpl, map[string]any{"userName": "Ada", "code": "123456"}, RenderOptions{})

	assert.Equal(t, "Hello Ada", content.Subject)
	assert.Equal(t, "Your code is 123456", content.Body)
}

func TestRender_RepeatedTokenSubstitutedEverywhere(t *testing.T) {
	r := NewRenderer(nil)
	tpl := &Template{Body: "{{name}} and {{name}} again, {{name}}"}

	content := r.Render(tpl, map[string]any{"name": "x"}, RenderOptions{})

	assert.Equal(t, "x and x again, x", content.Body)
}

func TestRender_PriorityChain(t *testing.T) {
	r := NewRenderer(map[string]string{"who": "global", "company": "Herald"})

	tests := []struct {
		name string
		data map[string]any
		opts RenderOptions
		want string
	}{
		{
			name: "data wins over overrides and globals",
			data: map[string]any{"who": "data"},
			opts: RenderOptions{DefaultOverrides: map[string]string{"who": "override"}},
			want: "data",
		},
		{
			name: "overrides win over globals",
			opts: RenderOptions{DefaultOverrides: map[string]string{"who": "override"}},
			want: "override",
		},
		{
			name: "globals apply last",
			want: "global",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := r.Render(&Template{Body: "{{who}}"}, tt.data, tt.opts)
			assert.Equal(t, tt.want, content.Body)
		})
	}
}

func TestRender_MissingTokenPolicy(t *testing.T) {
	r := NewRenderer(nil)
	tpl := &Template{Body: "before {{unknown}} after"}

	drop := r.Render(tpl, nil, RenderOptions{})
	assert.Equal(t, "before  after", drop.Body)

	keep := r.Render(tpl, nil, RenderOptions{KeepMissingPlaceholders: true})
	assert.Equal(t, "before {{unknown}} after", keep.Body)
}

func TestRender_NoPlaceholdersPassThrough(t *testing.T) {
	r := NewRenderer(map[string]string{"x": "y"})
	tpl := &Template{Subject: "plain subject", Body: "plain body"}

	content := r.Render(tpl, map[string]any{"x": "z"}, RenderOptions{})

	assert.Equal(t, "plain subject", content.Subject)
	assert.Equal(t, "plain body", content.Body)
}

func TestRender_SubjectAndBodyIndependent(t *testing.T) {
	r := NewRenderer(nil)
	tpl := &Template{Subject: "{{a}}", Body: "{{b}}"}

	content := r.Render(tpl, map[string]any{"a": "1"}, RenderOptions{KeepMissingPlaceholders: true})

	assert.Equal(t, "1", content.Subject)
	assert.Equal(t, "{{b}}", content.Body)
}

func TestRender_IsIdempotent(t *testing.T) {
	r := NewRenderer(nil)
	tpl := &Template{Body: "order {{orderId}} shipped"}
	data := map[string]any{"orderId": "A-42"}

	first := r.Render(tpl, data, RenderOptions{})
	// Rendering the already-rendered text again must be a no-op.
	second := r.Render(&Template{Body: first.Body}, data, RenderOptions{})

	assert.Equal(t, first.Body, second.Body)
}

func TestRender_ValueContainingPlaceholderSyntaxIsNotReexpanded(t *testing.T) {
	r := NewRenderer(nil)

	content := r.Render(&Template{Body: "{{a}}"},
		map[string]any{"a": "{{b}}", "b": "nope"}, RenderOptions{})
	assert.Equal(t, "{{b}}", content.Body)

	// Even when the injected token also appears later in the template, the
	// substituted value must survive untouched.
	content = r.Render(&Template{Body: "{{a}} {{b}}"},
		map[string]any{"a": "{{b}}", "b": "x"}, RenderOptions{})
	assert.Equal(t, "{{b}} x", content.Body)

	content = r.Render(&Template{Body: "{{b}} {{a}}"},
		map[string]any{"a": "{{b}}", "b": "x"}, RenderOptions{})
	assert.Equal(t, "x {{b}}", content.Body)
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "hello", "hello"},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"int64", int64(9000000000), "9000000000"},
		{"integral float", float64(7), "7"},
		{"fractional float", 3.14, "3.14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stringify(tt.value))
		})
	}
}

func TestNewRenderer_CopiesDefaults(t *testing.T) {
	defaults := map[string]string{"x": "original"}
	r := NewRenderer(defaults)
	defaults["x"] = "mutated"

	content := r.Render(&Template{Body: "{{x}}"}, nil, RenderOptions{})

	assert.Equal(t, "original", content.Body)
}
