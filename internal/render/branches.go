package render

import (
	"fmt"
	"html/template"
	"reflect"
	"strings"

	"github.com/hearthstay/server/internal/components"
	"github.com/hearthstay/server/internal/interpolate"
	"github.com/hearthstay/server/internal/models"
)

// branch renders one descriptor; it implements components.Visitor
type branch struct {
	r    *Renderer
	desc *models.UIComponent
	data map[string]any
	body template.HTML
}

var _ components.Visitor = (*branch)(nil)

func (b *branch) text(s string) string {
	return interpolate.Interpolate(s, b.data)
}

func (b *branch) exec(name string, v any) error {
	html, err := execute(name, v)
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	b.body = html
	return nil
}

func (b *branch) VisitReact(c *components.ReactConfig) error {
	switch c.Type {
	case "button":
		return b.exec("react-button", struct {
			Label, Variant, Href string
			Disabled             bool
		}{
			Label:    b.text(c.Label),
			Variant:  orDefault(c.Variant, "primary"),
			Href:     b.text(c.Href),
			Disabled: c.Disabled,
		})
	case "text":
		return b.exec("react-text", struct{ Content, As string }{b.text(c.Content), c.As})
	default:
		return b.exec("json", jsonDump(rawObject(c.Raw)))
	}
}

func (b *branch) VisitHTML(c *components.HTMLConfig) error {
	if strings.TrimSpace(b.desc.Template) == "" {
		return b.exec("missing-template", b.desc.Label())
	}
	clean := b.r.Sanitize(b.text(b.desc.Template))
	return b.exec("html", template.HTML(clean))
}

type actionView struct {
	Label, Href, Variant string
}

func (b *branch) actions(in []components.Action) []actionView {
	out := make([]actionView, 0, len(in))
	for _, a := range in {
		out = append(out, actionView{
			Label:   b.text(a.Label),
			Href:    b.text(a.Href),
			Variant: orDefault(a.Variant, "primary"),
		})
	}
	return out
}

func (b *branch) VisitCard(c *components.CardConfig) error {
	view := struct {
		Image              *components.CardImage
		Title, Description string
		Actions            []actionView
	}{
		Title:       b.text(c.Title),
		Description: b.text(c.Description),
		Actions:     b.actions(c.Actions),
	}
	if c.Image != nil && c.Image.Src != "" {
		view.Image = &components.CardImage{Src: b.text(c.Image.Src), Alt: b.text(c.Image.Alt)}
	}
	return b.exec("card", view)
}

func (b *branch) VisitBanner(c *components.BannerConfig) error {
	return b.exec("banner", struct {
		Severity, Icon, Title, Message string
		Dismissible                    bool
	}{
		Severity:    c.Severity(),
		Icon:        c.Icon,
		Title:       b.text(c.Title),
		Message:     b.text(c.Message),
		Dismissible: c.Dismissible,
	})
}

type fieldView struct {
	ID, Name, Label, Type, Placeholder string
	Required                           bool
	Options                            []string
}

func (b *branch) VisitForm(c *components.FormConfig) error {
	fields := make([]fieldView, 0, len(c.Fields))
	for _, f := range c.Fields {
		opts := make([]string, 0, len(f.Options))
		for _, o := range f.Options {
			opts = append(opts, b.text(o))
		}
		fields = append(fields, fieldView{
			ID:          b.desc.Name + "-" + f.Name,
			Name:        f.Name,
			Label:       b.text(f.Label),
			Type:        orDefault(f.Type, "text"),
			Placeholder: b.text(f.Placeholder),
			Required:    f.Required,
			Options:     opts,
		})
	}

	submit := ""
	if c.SubmitButton != nil {
		submit = orDefault(b.text(c.SubmitButton.Label), "Submit")
	}

	return b.exec("form", struct {
		Fields         []fieldView
		SubmitLabel    string
		Action, Method string
	}{
		Fields:      fields,
		SubmitLabel: submit,
		Action:      b.text(c.Action),
		Method:      strings.ToLower(orDefault(c.Method, "post")),
	})
}

type itemView struct {
	Text string
	JSON bool
}

func (b *branch) VisitList(c *components.ListConfig) error {
	items := c.Items
	if c.DataKey != "" {
		if fromData := sequence(b.data[c.DataKey]); len(fromData) > 0 {
			items = fromData
		}
	}

	views := make([]itemView, 0, len(items))
	for _, item := range items {
		switch {
		case isString(item):
			views = append(views, itemView{Text: reflect.ValueOf(item).String()})
		case c.ItemTemplate != "":
			views = append(views, itemView{Text: interpolate.Interpolate(c.ItemTemplate, item)})
		default:
			views = append(views, itemView{Text: jsonDump(item), JSON: true})
		}
	}

	return b.exec("list", struct {
		Items   []itemView
		Ordered bool
	}{views, c.Ordered})
}

func (b *branch) VisitCustom(c *components.CustomConfig) error {
	return b.exec("json", jsonDump(map[string]any{
		"config": rawObject(c.Raw),
		"data":   b.data,
	}))
}

func (b *branch) VisitUnknown(c *components.UnknownConfig) error {
	return b.exec("default", struct {
		Label, Description, ComponentType, Category string
	}{
		Label:         b.desc.Label(),
		Description:   b.text(b.desc.Description),
		ComponentType: b.desc.ComponentType,
		Category:      b.desc.Category,
	})
}

// sequence returns v as a slice when it is one
func sequence(v any) []any {
	if v == nil {
		return nil
	}
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func isString(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.String
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
