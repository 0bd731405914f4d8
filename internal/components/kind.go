// Package components defines the closed set of component variants, the typed
// config each one carries, and the write-time schema checks for those configs.
package components

// Kind identifies a rendering variant
type Kind string

const (
	KindReact  Kind = "react"
	KindHTML   Kind = "html"
	KindCard   Kind = "card"
	KindBanner Kind = "banner"
	KindForm   Kind = "form"
	KindList   Kind = "list"
	KindCustom Kind = "custom"
)

// Kinds lists every known variant in dispatch order
func Kinds() []Kind {
	return []Kind{KindReact, KindHTML, KindCard, KindBanner, KindForm, KindList, KindCustom}
}

// ParseKind reports whether s names a known variant
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, true
		}
	}
	return Kind(s), false
}

// IsKnown reports whether k is one of the closed set
func (k Kind) IsKnown() bool {
	_, ok := ParseKind(string(k))
	return ok
}
