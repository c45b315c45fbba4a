package project

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed starters.yaml
var startersYAML []byte

// Starter is the sample copy a template puts into a document.
type Starter struct {
	CatchCopy      string        `yaml:"catch_copy"`
	SubCatch       string        `yaml:"sub_catch"`
	PrimaryCTA     string        `yaml:"primary_cta"`
	SecondaryCTA   string        `yaml:"secondary_cta"`
	HeroImage      string        `yaml:"hero_image"`
	AboutTitle     string        `yaml:"about_title"`
	AboutBody      string        `yaml:"about_body"`
	Points         []string      `yaml:"points"`
	ServicesTitle  string        `yaml:"services_title"`
	ServicesLead   string        `yaml:"services_lead"`
	ServiceItems   []ServiceItem `yaml:"service_items"`
	FAQ            []FAQItem     `yaml:"faq"`
	ContactMessage string        `yaml:"contact_message"`
	ContactButton  string        `yaml:"contact_button"`
}

// Starters maps template ids onto their starter copy.
var Starters = mustLoadStarters(startersYAML)

// Copy that older builds wrote as samples. It is replaced like starter copy.
var legacySamples = map[string][]string{
	"catch_copy":    {"“できた”が増える、たのしい毎日。"},
	"sub_catch":     {"体験利用・見学を受付中です", "見学・体験を受付中です", "見学・無料相談を受付中です"},
	"primary_cta":   {"体験利用", "見学する", "相談する"},
	"secondary_cta": {"無料相談", "見学する"},
	"about_title":   {"理念・概要", "サービス内容", "サービス概要"},
}

const dayServicePhotoGuide = "活動の様子（手元だけでなく空気感）＋スタッフの寄り添いが伝わる写真。逆光で文字が読めなくならない構図。"

func mustLoadStarters(raw []byte) map[string]Starter {
	s, err := loadStarters(raw)
	if err != nil {
		panic("starters: " + err.Error())
	}
	return s
}

func loadStarters(raw []byte) (map[string]Starter, error) {
	var s map[string]Starter
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing starters: %w", err)
	}
	if _, ok := s[TemplateCorporate]; !ok {
		return nil, fmt.Errorf("starters: %s missing", TemplateCorporate)
	}
	return s, nil
}

// StarterFor returns the starter copy used by a template id.
func StarterFor(templateID string) (Starter, bool) {
	switch templateID {
	case TemplatePersonal, TemplateFree:
		templateID = TemplateCorporate
	case TemplateWelfare:
		templateID = TemplateCareDay
	}
	s, ok := Starters[templateID]
	return s, ok
}

// samplesOf collects one field across every starter plus the legacy samples.
func samplesOf(key string, field func(Starter) string) []string {
	out := slices.Clone(legacySamples[key])
	for _, s := range Starters {
		if v := strings.TrimSpace(field(s)); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func replaceText(cur *string, next string, samples []string, prefix string) {
	v := strings.TrimSpace(*cur)
	if v == "" || slices.Contains(samples, v) || (prefix != "" && strings.HasPrefix(v, prefix)) {
		*cur = next
	}
}

func allBlank(vs []string) bool {
	return !slices.ContainsFunc(vs, func(v string) bool { return strings.TrimSpace(v) != "" })
}

// applyStarter swaps sample copy for the copy of templateID. Text the
// operator already changed is left alone.
func applyStarter(d *Document, templateID string) {
	st, ok := StarterFor(templateID)
	if !ok {
		return
	}
	s1 := &d.Data.Step1
	b := &d.Data.Blocks

	replaceText(&d.Data.Step2.CatchCopy, st.CatchCopy, samplesOf("catch_copy", func(s Starter) string { return s.CatchCopy }), "")

	replaceText(&b.Hero.SubCatch, st.SubCatch, samplesOf("sub_catch", func(s Starter) string { return s.SubCatch }), "")
	replaceText(&b.Hero.PrimaryButtonText, st.PrimaryCTA, samplesOf("primary_cta", func(s Starter) string { return s.PrimaryCTA }), "")
	replaceText(&b.Hero.SecondaryButtonText, st.SecondaryCTA, samplesOf("secondary_cta", func(s Starter) string { return s.SecondaryCTA }), "")
	// Any preset key may be swapped; a custom value may not.
	if _, preset := Presets.HeroImageURL(b.Hero.HeroImage); preset || strings.TrimSpace(b.Hero.HeroImage) == "" {
		b.Hero.HeroImage = st.HeroImage
	}

	p := &b.Philosophy
	replaceText(&p.Title, st.AboutTitle, samplesOf("about_title", func(s Starter) string { return s.AboutTitle }), "")
	replaceText(&p.Body, st.AboutBody, samplesOf("about_body", func(s Starter) string { return s.AboutBody }), "ここに")
	if allBlank(p.Points) || slices.ContainsFunc(startersList(func(s Starter) []string { return s.Points }), func(l []string) bool {
		return slices.Equal(l, p.Points)
	}) {
		p.Points = slices.Clone(st.Points)
	}

	svc := &p.Services
	replaceText(&svc.Title, st.ServicesTitle, samplesOf("services_title", func(s Starter) string { return s.ServicesTitle }), "")
	replaceText(&svc.Lead, st.ServicesLead, samplesOf("services_lead", func(s Starter) string { return s.ServicesLead }), "提供サービスの概要")
	if sampleServiceItems(svc.Items) {
		svc.Items = slices.Clone(st.ServiceItems)
	}

	if sampleFAQItems(b.FAQ.Items) {
		b.FAQ.Items = slices.Clone(st.FAQ)
	}

	replaceText(&b.Contact.Message, st.ContactMessage, samplesOf("contact_message", func(s Starter) string { return s.ContactMessage }), "ここに")
	replaceText(&b.Contact.ButtonText, st.ContactButton, samplesOf("contact_button", func(s Starter) string { return s.ContactButton }), "")

	if IsDayService(templateID) {
		if s1.PrimaryColor == DefaultColor {
			s1.PrimaryColor = "green"
		}
		if d.Guides == nil {
			d.Guides = map[string]string{}
		}
		if _, ok := d.Guides["photo_direction_day_service"]; !ok {
			d.Guides["photo_direction_day_service"] = dayServicePhotoGuide
		}
	}
}

func startersList[T any](field func(Starter) []T) [][]T {
	out := make([][]T, 0, len(Starters))
	for _, s := range Starters {
		out = append(out, field(s))
	}
	return out
}

// sampleServiceItems reports whether items are still placeholder content.
// An emptied list is the operator's choice and is kept.
func sampleServiceItems(items []ServiceItem) bool {
	if len(items) == 0 {
		return false
	}
	blank := true
	for _, it := range items {
		t := strings.TrimSpace(it.Title)
		if strings.HasPrefix(t, "サービス") || strings.HasPrefix(t, "項目") {
			return true
		}
		if t != "" || strings.TrimSpace(it.Body) != "" {
			blank = false
		}
	}
	if blank {
		return true
	}
	return slices.ContainsFunc(startersList(func(s Starter) []ServiceItem { return s.ServiceItems }), func(l []ServiceItem) bool {
		return slices.Equal(l, items)
	})
}

// sampleFAQItems reports whether items are still placeholder content.
func sampleFAQItems(items []FAQItem) bool {
	if len(items) == 0 {
		return false
	}
	blank := true
	for _, it := range items {
		if strings.HasPrefix(strings.TrimSpace(it.Q), "サンプル") {
			return true
		}
		if strings.TrimSpace(it.Q) != "" || strings.TrimSpace(it.A) != "" {
			blank = false
		}
	}
	if blank {
		return true
	}
	return slices.ContainsFunc(startersList(func(s Starter) []FAQItem { return s.FAQ }), func(l []FAQItem) bool {
		return slices.Equal(l, items)
	})
}
