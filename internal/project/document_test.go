package project

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 1, 2, 3, 0, time.UTC)

func TestNewFillsSampleContent(t *testing.T) {
	d := New("  Acme site ", "alice", fixedNow)

	assert.Regexp(t, regexp.MustCompile(`^p20250314100203_[0-9a-f]{6}$`), d.ProjectID)
	assert.Equal(t, "Acme site", d.ProjectName)
	assert.Equal(t, "2025-03-14T10:02:03+09:00", d.CreatedAt)
	assert.Equal(t, d.CreatedAt, d.UpdatedAt)
	assert.Equal(t, "alice", d.CreatedBy)
	assert.Equal(t, SchemaVersion, d.SchemaVersion)

	assert.Equal(t, IndustryCorporate, d.Data.Step1.Industry)
	assert.Equal(t, TemplateCorporate, d.Data.Step1.TemplateID)
	assert.Equal(t, DefaultLayout, d.Data.Layout)
	assert.Equal(t, samplePoints, d.Data.Blocks.Philosophy.Points)
	assert.Equal(t, sampleCatchCopy, d.Data.Step2.CatchCopy)
	require.Len(t, d.Data.Blocks.News.Items, 1)
	assert.Equal(t, "2025-03-14", d.Data.Blocks.News.Items[0].Date)
	assert.Len(t, d.Data.Blocks.FAQ.Items, 3, "corporate starter FAQ")
	assert.Equal(t, sampleServices(), d.Data.Blocks.Philosophy.Services.Items)
	assert.Equal(t, TemplateCorporate, d.Data.Step1.AppliedTemplateID)
}

func TestNewWithoutNameUsesPlaceholder(t *testing.T) {
	d := New("", "", fixedNow)
	assert.Equal(t, "(no name)", d.ProjectName)
}

func TestEncodeDecodeRoundTripIsVerbatim(t *testing.T) {
	d := New("Round trip", "bob", fixedNow)
	d.Data.Step2.CompanyName = "<b>Acme & Co</b>"
	d.Data.Blocks.News.Items = []NewsItem{}

	raw, err := Encode(d)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<b>Acme & Co</b>", "HTML must not be escaped in stored JSON")

	back, err := Decode(raw, fixedNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, d, back)
}

func TestDecodeKeepsExplicitEmptyListsAndFillsAbsentOnes(t *testing.T) {
	raw := []byte(`{"project_id":"p1","project_name":"x","data":{"blocks":{"faq":{"items":[]}}}}`)
	d, err := Decode(raw, fixedNow)
	require.NoError(t, err)

	assert.Empty(t, d.Data.Blocks.FAQ.Items, "explicit empty list stays empty")
	assert.Len(t, d.Data.Blocks.News.Items, 1, "absent list gets the sample")
	assert.Equal(t, sampleSubCatch, d.Data.Blocks.Hero.SubCatch, "absent scalar gets its default")
	assert.Len(t, d.Data.Blocks.Philosophy.Services.Items, 3, "absent services get the sample")
}

func TestDecodeStoredDocumentWithoutServices(t *testing.T) {
	raw := []byte(`{"project_id":"p1","data":{
		"step1":{"industry":"会社サイト（企業）","template_id":"corp_v1","applied_template_id":"corp_v1"},
		"blocks":{"hero":{"hero_image_url":"https://a.example/1.jpg"}},
		"layout":["hero","news","about","faq","access","contact"]}}`)
	d, err := Decode(raw, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, DefaultLayout, d.Data.Layout)
	assert.Equal(t, []string{"https://a.example/1.jpg"}, d.Data.Blocks.Hero.HeroImageURLs)
	assert.Equal(t, sampleServicesTitle, d.Data.Blocks.Philosophy.Services.Title)
}

func TestDecodeKeepsExplicitEmptyStrings(t *testing.T) {
	raw := []byte(`{"project_id":"p1","data":{"step1":{"applied_template_id":"corp_v1"},"blocks":{"hero":{"sub_catch":""}}}}`)
	d, err := Decode(raw, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "", d.Data.Blocks.Hero.SubCatch)
}

func TestDecodeAcceptsLegacyFlatPayload(t *testing.T) {
	raw := []byte(`{"project_id":"p9","step1":{"industry":"個人事業"},"step2":{"company_name":"Solo"}}`)
	d, err := Decode(raw, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "p9", d.ProjectID)
	assert.Equal(t, IndustryPersonal, d.Data.Step1.Industry)
	assert.Equal(t, TemplatePersonal, d.Data.Step1.TemplateID)
	assert.Equal(t, "Solo", d.Data.Step2.CompanyName)
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`null`, `[]`, `"x"`, `{`} {
		_, err := Decode([]byte(raw), fixedNow)
		assert.ErrorIs(t, err, ErrInvalidDocument, raw)
	}
}

func TestDecodeConvertsTimestampsToJST(t *testing.T) {
	raw := []byte(`{"project_id":"p1","created_at":"2024-12-31T20:00:00Z","updated_at":"2025-01-01T00:00:00"}`)
	d, err := Decode(raw, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T05:00:00+09:00", d.CreatedAt)
	assert.Equal(t, "2025-01-01T09:00:00+09:00", d.UpdatedAt)
}

func TestCloneIsDeep(t *testing.T) {
	d := New("orig", "", fixedNow)
	c := Clone(d)
	c.Data.Blocks.Philosophy.Points[0] = "changed"
	c.Data.Blocks.FAQ.Items[0].Q = "changed"
	c.Data.Blocks.Philosophy.Services.Items[0].Title = "changed"
	c.Data.Layout[0] = SectionFAQ

	assert.NotEqual(t, "changed", d.Data.Blocks.Philosophy.Points[0])
	assert.NotEqual(t, "changed", d.Data.Blocks.FAQ.Items[0].Q)
	assert.NotEqual(t, "changed", d.Data.Blocks.Philosophy.Services.Items[0].Title)
	assert.Equal(t, SectionHero, d.Data.Layout[0])
	assert.NotNil(t, c.Data.Blocks.Hero.HeroImageURLs, "empty lists stay non-nil")
}

func TestFromTemplateKeepsContentWithFreshIdentity(t *testing.T) {
	src := New("template", "admin", fixedNow)
	src.Data.Step2.CompanyName = "Template Co"

	later := fixedNow.Add(48 * time.Hour)
	d := FromTemplate(src, "copy", "bob", later)

	assert.NotEqual(t, src.ProjectID, d.ProjectID)
	assert.Equal(t, "copy", d.ProjectName)
	assert.Equal(t, "Template Co", d.Data.Step2.CompanyName)
	assert.Equal(t, FormatTime(later), d.CreatedAt)
	assert.Equal(t, "bob", d.CreatedBy)
}

func TestEncodedFieldNames(t *testing.T) {
	raw, err := Encode(New("n", "", fixedNow))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	data := m["data"].(map[string]any)
	for _, k := range []string{"step1", "step2", "blocks", "layout"} {
		assert.Contains(t, data, k)
	}
	blocks := data["blocks"].(map[string]any)
	for _, k := range []string{"hero", "philosophy", "news", "faq", "access", "contact"} {
		assert.Contains(t, blocks, k)
	}
	assert.Contains(t, blocks["hero"], "hero_image_urls")
	assert.Contains(t, blocks["philosophy"], "services")
}
