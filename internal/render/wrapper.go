package render

import (
	"encoding/json"
	"html/template"
	"regexp"
	"sort"
	"strings"

	"github.com/hearthstay/server/internal/components"
	"github.com/hearthstay/server/internal/interpolate"
	"github.com/hearthstay/server/internal/models"
)

var (
	classPattern   = regexp.MustCompile(`^[A-Za-z_-][A-Za-z0-9_:/-]*$`)
	cssPropPattern = regexp.MustCompile(`^-?[a-z][a-z-]*$`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
)

type declaration struct {
	Prop, Value string
}

type wrapperView struct {
	Kind, Name, ID           string
	Classes                  []string
	Style                    []declaration
	Interactions, Responsive string
	Body                     template.HTML
}

// wrap attaches styles, interactions and responsive hints to the branch body
func (r *Renderer) wrap(desc *models.UIComponent, kind components.Kind, body template.HTML) (template.HTML, error) {
	kindClass := string(kind)
	if !kind.IsKnown() {
		kindClass = "default"
	}

	classes, style := parseStyles(desc.Styles)
	return execute("wrapper", wrapperView{
		Kind:         kindClass,
		Name:         desc.Name,
		ID:           desc.ID,
		Classes:      classes,
		Style:        style,
		Interactions: compactJSON(desc.Interactions),
		Responsive:   compactJSON(desc.Responsive),
		Body:         body,
	})
}

// parseStyles reads {"className": "a b", "backgroundColor": "#fff", ...}.
// className feeds the class attribute; every other scalar key becomes a CSS
// declaration with its name converted to kebab-case.
func parseStyles(raw []byte) ([]string, []declaration) {
	if len(raw) == 0 {
		return nil, nil
	}
	var styles map[string]any
	if err := json.Unmarshal(raw, &styles); err != nil {
		return nil, nil
	}

	var classes []string
	if cn, ok := styles["className"].(string); ok {
		for _, c := range strings.Fields(cn) {
			if classPattern.MatchString(c) {
				classes = append(classes, c)
			}
		}
	}

	keys := make([]string, 0, len(styles))
	for k := range styles {
		if k != "className" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var decls []declaration
	for _, k := range keys {
		prop := kebab(k)
		if !cssPropPattern.MatchString(prop) {
			continue
		}
		switch v := styles[k].(type) {
		case string, float64, bool:
			decls = append(decls, declaration{Prop: prop, Value: interpolate.Stringify(v)})
		}
	}
	return classes, decls
}

func kebab(s string) string {
	return upperPattern.ReplaceAllStringFunc(s, func(m string) string {
		return "-" + strings.ToLower(m)
	})
}

func compactJSON(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
