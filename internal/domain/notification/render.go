package notification

import (
	"fmt"
	"regexp"
	"strconv"
)

// placeholderRe matches {{token}} placeholders. Nested braces are not
// permitted inside a token.
var placeholderRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// RenderOptions controls placeholder resolution for one render call.
type RenderOptions struct {
	// DefaultOverrides supplies call-scoped fallback values, consulted after
	// the request data but before the renderer's global default table.
	DefaultOverrides map[string]string

	// KeepMissingPlaceholders leaves unresolvable tokens as literal {{token}}
	// text instead of replacing them with the empty string.
	KeepMissingPlaceholders bool
}

// Renderer substitutes {{placeholder}} tokens in templates against a data
// context. Rendering is pure: a Renderer is safe for concurrent use.
//
// Resolution priority per token, highest first:
//  1. the per-request data context
//  2. call-scoped default overrides
//  3. the renderer's global default table
//  4. policy: keep the literal placeholder or substitute empty string
type Renderer struct {
	defaults map[string]string
}

// NewRenderer creates a renderer with the given global default-value table.
// The table is copied, so later mutation of the argument has no effect.
func NewRenderer(globalDefaults map[string]string) *Renderer {
	defaults := make(map[string]string, len(globalDefaults))
	for k, v := range globalDefaults {
		defaults[k] = v
	}
	return &Renderer{defaults: defaults}
}

// Render produces the final content for a template. Subject and body are
// rendered independently under the same rules; templates with no
// placeholders pass through unchanged.
func (r *Renderer) Render(tpl *Template, data map[string]any, opts RenderOptions) *Content {
	return &Content{
		Subject: r.renderText(tpl.Subject, data, opts),
		Body:    r.renderText(tpl.Body, data, opts),
	}
}

// renderText substitutes all tokens in a single pass over the original text.
// Substituted values are never rescanned, so a value containing placeholder
// syntax cannot be re-expanded.
func (r *Renderer) renderText(text string, data map[string]any, opts RenderOptions) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		token := match[2 : len(match)-2]
		value, ok := r.lookup(token, data, opts)
		if !ok {
			if opts.KeepMissingPlaceholders {
				return match
			}
			return ""
		}
		return value
	})
}

// lookup resolves a token through the priority chain.
func (r *Renderer) lookup(token string, data map[string]any, opts RenderOptions) (string, bool) {
	if v, ok := data[token]; ok {
		return stringify(v), true
	}
	if v, ok := opts.DefaultOverrides[token]; ok {
		return v, true
	}
	if v, ok := r.defaults[token]; ok {
		return v, true
	}
	return "", false
}

// stringify converts scalar data-context values to their string form.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		// JSON numbers decode as float64; render integral values without a
		// trailing ".0".
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
