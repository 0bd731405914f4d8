package components

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Config is the typed payload of one variant.
// Accept dispatches to the matching Visitor method, so adding a variant
// forces every Visitor implementation to handle it.
type Config interface {
	Kind() Kind
	Accept(v Visitor) error
}

// Visitor handles each variant. VisitUnknown receives any componentType
// outside the closed set.
type Visitor interface {
	VisitReact(c *ReactConfig) error
	VisitHTML(c *HTMLConfig) error
	VisitCard(c *CardConfig) error
	VisitBanner(c *BannerConfig) error
	VisitForm(c *FormConfig) error
	VisitList(c *ListConfig) error
	VisitCustom(c *CustomConfig) error
	VisitUnknown(c *UnknownConfig) error
}

// ReactConfig selects a built-in mini-component by Type ("button" or "text").
// Any other Type renders the raw config.
type ReactConfig struct {
	Type string `json:"type" validate:"required,max=64"`

	// button
	Label    string `json:"label,omitempty" validate:"max=256"`
	Variant  string `json:"variant,omitempty" validate:"omitempty,oneof=primary secondary outline ghost link danger"`
	Href     string `json:"href,omitempty" validate:"omitempty,uri|startswith=/|startswith=#"`
	Disabled bool   `json:"disabled,omitempty"`

	// text
	Content string `json:"content,omitempty"`
	As      string `json:"as,omitempty" validate:"omitempty,oneof=p span h1 h2 h3 h4 h5 h6"`

	Raw json.RawMessage `json:"-"`
}

// HTMLConfig carries no typed fields; the markup lives in the descriptor's Template.
type HTMLConfig struct {
	Raw json.RawMessage `json:"-"`
}

// CardImage is the optional hero image of a card
type CardImage struct {
	Src string `json:"src" validate:"required"`
	Alt string `json:"alt,omitempty"`
}

// Action is a link-styled button
type Action struct {
	Label   string `json:"label" validate:"required,max=128"`
	Href    string `json:"href,omitempty"`
	Variant string `json:"variant,omitempty" validate:"omitempty,oneof=primary secondary outline ghost link danger"`
}

type CardConfig struct {
	Image       *CardImage `json:"image,omitempty"`
	Title       string     `json:"title,omitempty" validate:"max=256"`
	Description string     `json:"description,omitempty"`
	Actions     []Action   `json:"actions,omitempty" validate:"max=8,dive"`
}

// Banner severities; anything else renders neutral
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeverityNeutral = "neutral"
)

type BannerConfig struct {
	Type        string `json:"type,omitempty" validate:"omitempty,oneof=info success warning error neutral"`
	Icon        string `json:"icon,omitempty" validate:"max=64"`
	Title       string `json:"title,omitempty" validate:"max=256"`
	Message     string `json:"message,omitempty"`
	Dismissible bool   `json:"dismissible,omitempty"`
}

// Severity returns the banner's severity, defaulting to neutral
func (c *BannerConfig) Severity() string {
	switch c.Type {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return c.Type
	default:
		return SeverityNeutral
	}
}

// FormField is one input of a form, rendered in order
type FormField struct {
	Name        string   `json:"name" validate:"required,max=64"`
	Label       string   `json:"label,omitempty" validate:"max=256"`
	Type        string   `json:"type,omitempty" validate:"omitempty,oneof=text email password number tel url date datetime-local textarea checkbox select hidden"`
	Placeholder string   `json:"placeholder,omitempty" validate:"max=256"`
	Required    bool     `json:"required,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// SubmitButton labels the form's submit control
type SubmitButton struct {
	Label string `json:"label,omitempty" validate:"max=128"`
}

type FormConfig struct {
	Fields       []FormField   `json:"fields" validate:"required,min=1,max=50,dive"`
	SubmitButton *SubmitButton `json:"submitButton,omitempty"`
	Action       string        `json:"action,omitempty"`
	Method       string        `json:"method,omitempty" validate:"omitempty,oneof=GET POST get post"`
}

// ListConfig sources items from data[DataKey] when that is a non-empty
// sequence, else from Items.
type ListConfig struct {
	DataKey      string `json:"dataKey,omitempty" validate:"max=128"`
	Items        []any  `json:"items,omitempty"`
	ItemTemplate string `json:"itemTemplate,omitempty"`
	Ordered      bool   `json:"ordered,omitempty"`
}

// CustomConfig is opaque; it renders as a dump of itself and the data.
type CustomConfig struct {
	Raw json.RawMessage `json:"-"`
}

// UnknownConfig is produced for componentTypes outside the closed set.
type UnknownConfig struct {
	Type string          `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

func (*ReactConfig) Kind() Kind { return KindReact }
func (*HTMLConfig) Kind() Kind { return KindHTML }
func (*CardConfig) Kind() Kind { return KindCard }
func (*BannerConfig) Kind() Kind { return KindBanner }
func (*FormConfig) Kind() Kind { return KindForm }
func (*ListConfig) Kind() Kind { return KindList }
func (*CustomConfig) Kind() Kind { return KindCustom }
func (c *UnknownConfig) Kind() Kind { return Kind(c.Type) }

func (c *ReactConfig) Accept(v Visitor) error { return v.VisitReact(c) }
func (c *HTMLConfig) Accept(v Visitor) error { return v.VisitHTML(c) }
func (c *CardConfig) Accept(v Visitor) error { return v.VisitCard(c) }
func (c *BannerConfig) Accept(v Visitor) error { return v.VisitBanner(c) }
func (c *FormConfig) Accept(v Visitor) error { return v.VisitForm(c) }
func (c *ListConfig) Accept(v Visitor) error { return v.VisitList(c) }
func (c *CustomConfig) Accept(v Visitor) error { return v.VisitCustom(c) }
func (c *UnknownConfig) Accept(v Visitor) error { return v.VisitUnknown(c) }

// Decode parses raw into the typed config for componentType.
// Empty or null raw decodes as an empty object.
func Decode(componentType string, raw []byte) (Config, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	if raw[0] != '{' {
		return nil, fmt.Errorf("%s config must be a JSON object", componentType)
	}

	kind, known := ParseKind(componentType)
	if !known {
		return &UnknownConfig{Type: componentType, Raw: raw}, nil
	}

	var cfg Config
	switch kind {
	case KindReact:
		cfg = &ReactConfig{Raw: raw}
	case KindHTML:
		return &HTMLConfig{Raw: raw}, nil
	case KindCard:
		cfg = &CardConfig{}
	case KindBanner:
		cfg = &BannerConfig{}
	case KindForm:
		cfg = &FormConfig{}
	case KindList:
		cfg = &ListConfig{}
	case KindCustom:
		return &CustomConfig{Raw: raw}, nil
	}

	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", kind, err)
	}
	return cfg, nil
}
