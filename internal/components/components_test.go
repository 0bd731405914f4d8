package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(string(k))
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}

	got, ok := ParseKind("carousel")
	assert.False(t, ok)
	assert.Equal(t, Kind("carousel"), got)
	assert.False(t, got.IsKnown())
}

func TestDecodeEveryKind(t *testing.T) {
	for _, k := range Kinds() {
		cfg, err := Decode(string(k), nil)
		require.NoError(t, err, k)
		assert.Equal(t, k, cfg.Kind())
	}

	cfg, err := Decode("carousel", []byte(`{"slides":3}`))
	require.NoError(t, err)
	unknown, ok := cfg.(*UnknownConfig)
	require.True(t, ok)
	assert.Equal(t, "carousel", unknown.Type)
	assert.JSONEq(t, `{"slides":3}`, string(unknown.Raw))
}

func TestDecodeBanner(t *testing.T) {
	cfg, err := Decode("banner", []byte(`{"type":"warning","title":"{{title}}","message":"Sale ends {{date}}","dismissible":true}`))
	require.NoError(t, err)

	b := cfg.(*BannerConfig)
	assert.Equal(t, SeverityWarning, b.Severity())
	assert.Equal(t, "{{title}}", b.Title)
	assert.True(t, b.Dismissible)

	b.Type = "purple"
	assert.Equal(t, SeverityNeutral, b.Severity())
}

func TestDecodeRejectsMismatchedShape(t *testing.T) {
	_, err := Decode("card", []byte(`{"title": 42}`))
	assert.Error(t, err)

	_, err = Decode("list", []byte(`["a","b"]`))
	assert.Error(t, err)
}

func TestDecodeKeepsRawReactConfig(t *testing.T) {
	cfg, err := Decode("react", []byte(`{"type":"map","lat":1.5}`))
	require.NoError(t, err)
	r := cfg.(*ReactConfig)
	assert.Equal(t, "map", r.Type)
	assert.JSONEq(t, `{"type":"map","lat":1.5}`, string(r.Raw))
}

func TestValidateFormFields(t *testing.T) {
	_, fields := DecodeAndValidate("form", []byte(`{"fields":[{"label":"Email","type":"email"},{"name":"msg","type":"blob"}],"method":"PATCH"}`))
	require.NotEmpty(t, fields)

	paths := map[string]string{}
	for _, f := range fields {
		paths[f.Field] = f.Message
	}
	assert.Equal(t, "is required", paths["config.fields[0].name"])
	assert.Contains(t, paths, "config.fields[1].type")
	assert.Contains(t, paths, "config.method")
}

func TestValidateFormRequiresFields(t *testing.T) {
	_, fields := DecodeAndValidate("form", []byte(`{}`))
	require.Len(t, fields, 1)
	assert.Equal(t, "config.fields", fields[0].Field)
}

func TestValidateCardActions(t *testing.T) {
	_, fields := DecodeAndValidate("card", []byte(`{"title":"Cabin","actions":[{"href":"/book"}]}`))
	require.Len(t, fields, 1)
	assert.Equal(t, "config.actions[0].label", fields[0].Field)

	_, fields = DecodeAndValidate("card", []byte(`{"title":"Cabin","image":{"src":"/c.jpg"},"actions":[{"label":"Book","href":"/book"}]}`))
	assert.Empty(t, fields)
}

func TestValidateBannerSeverity(t *testing.T) {
	_, fields := DecodeAndValidate("banner", []byte(`{"type":"purple"}`))
	require.Len(t, fields, 1)
	assert.Equal(t, "config.type", fields[0].Field)
	assert.Contains(t, fields[0].Message, "warning")
}

func TestValidateListNeedsSource(t *testing.T) {
	_, fields := DecodeAndValidate("list", []byte(`{"ordered":true}`))
	require.Len(t, fields, 1)
	assert.Equal(t, "config.items", fields[0].Field)

	_, fields = DecodeAndValidate("list", []byte(`{"dataKey":"amenities"}`))
	assert.Empty(t, fields)
}

func TestValidateReact(t *testing.T) {
	_, fields := DecodeAndValidate("react", []byte(`{"label":"Go"}`))
	require.Len(t, fields, 1)
	assert.Equal(t, "config.type", fields[0].Field)

	_, fields = DecodeAndValidate("react", []byte(`{"type":"text","as":"marquee"}`))
	require.Len(t, fields, 1)
	assert.Equal(t, "config.as", fields[0].Field)
}

func TestDecodeAndValidateTypeMismatch(t *testing.T) {
	_, fields := DecodeAndValidate("banner", []byte(`{"dismissible":"yes"}`))
	require.Len(t, fields, 1)
	assert.Equal(t, "config", fields[0].Field)
	assert.Contains(t, fields[0].Message, "dismissible")
}

func TestOpaqueKindsAlwaysValid(t *testing.T) {
	for _, kind := range []string{"html", "custom", "carousel"} {
		_, fields := DecodeAndValidate(kind, []byte(`{"anything":[1,2,3]}`))
		assert.Empty(t, fields, kind)
	}
}

func TestNamePattern(t *testing.T) {
	assert.True(t, NamePattern.MatchString("promo-banner"))
	assert.True(t, NamePattern.MatchString("home.hero_v2"))
	assert.False(t, NamePattern.MatchString("Promo"))
	assert.False(t, NamePattern.MatchString("-leading"))
	assert.False(t, NamePattern.MatchString(""))
}

type countingVisitor struct{ seen []Kind }

func (v *countingVisitor) VisitReact(*ReactConfig) error { v.seen = append(v.seen, KindReact); return nil }
func (v *countingVisitor) VisitHTML(*HTMLConfig) error { v.seen = append(v.seen, KindHTML); return nil }
func (v *countingVisitor) VisitCard(*CardConfig) error { v.seen = append(v.seen, KindCard); return nil }
func (v *countingVisitor) VisitBanner(*BannerConfig) error { v.seen = append(v.seen, KindBanner); return nil }
func (v *countingVisitor) VisitForm(*FormConfig) error { v.seen = append(v.seen, KindForm); return nil }
func (v *countingVisitor) VisitList(*ListConfig) error { v.seen = append(v.seen, KindList); return nil }
func (v *countingVisitor) VisitCustom(*CustomConfig) error { v.seen = append(v.seen, KindCustom); return nil }
func (v *countingVisitor) VisitUnknown(c *UnknownConfig) error {
	v.seen = append(v.seen, c.Kind())
	return nil
}

func TestAcceptDispatch(t *testing.T) {
	v := &countingVisitor{}
	for _, k := range append(Kinds(), "carousel") {
		cfg, err := Decode(string(k), nil)
		require.NoError(t, err)
		require.NoError(t, cfg.Accept(v))
	}
	assert.Equal(t, append(Kinds(), "carousel"), v.seen)
}
