package project

import (
	"slices"
	"strings"
	"time"
)

// Template ids stored in step1.template_id.
const (
	TemplateCorporate             = "corp_v1"
	TemplatePersonal              = "personal_v1"
	TemplateFree                  = "free6_v1"
	TemplateWelfare               = "welfare_v1"
	TemplateCareResidential       = "care_residential_v1"
	TemplateCareDay               = "care_day_v1"
	TemplateDisabilityResidential = "disability_residential_v1"
	TemplateDisabilityDay         = "disability_day_v1"
	TemplateChildResidential      = "child_residential_v1"
	TemplateChildDay              = "child_day_v1"
)

// PointsCount is the fixed number of philosophy points.
const PointsCount = 3

// ResolveTemplateID derives the template id from the industry settings.
func ResolveTemplateID(s Step1) string {
	switch s.Industry {
	case IndustryWelfare:
		domain := s.WelfareDomain
		if domain == "" {
			domain = Presets.WelfareDomains[0].Value
		}
		day := s.WelfareMode != "" && s.WelfareMode != ModeResidential
		pick := func(residential, dayService string) string {
			if day {
				return dayService
			}
			return residential
		}
		switch domain {
		case WelfareCare:
			return pick(TemplateCareResidential, TemplateCareDay)
		case WelfareDisability:
			return pick(TemplateDisabilityResidential, TemplateDisabilityDay)
		case WelfareChild:
			return pick(TemplateChildResidential, TemplateChildDay)
		}
		return TemplateWelfare
	case IndustryPersonal:
		return TemplatePersonal
	case IndustryOther:
		return TemplateFree
	}
	return TemplateCorporate
}

// IsDayService reports whether a template id is a welfare day-service template.
func IsDayService(templateID string) bool {
	switch templateID {
	case TemplateCareDay, TemplateDisabilityDay, TemplateChildDay:
		return true
	}
	return false
}

// Normalize repairs d in place: enums are clamped to known presets, derived
// fields are recomputed, timestamps are re-expressed in JST and the section
// layout is made complete. When the template changed since the last run, its
// starter copy replaces sample text. Running it twice changes nothing.
func Normalize(d *Document, now time.Time) {
	d.SchemaVersion = SchemaVersion
	if d.ProjectID == "" {
		d.ProjectID = NewID(now)
	}
	if strings.TrimSpace(d.ProjectName) == "" {
		d.ProjectName = "(no name)"
	}
	d.CreatedAt = normalizeStamp(d.CreatedAt, now)
	d.UpdatedAt = normalizeStamp(d.UpdatedAt, now)

	normalizeStep1(&d.Data.Step1)
	normalizeBlocks(&d.Data.Blocks)
	d.Data.Layout = normalizeLayout(d.Data.Layout)

	if s1 := &d.Data.Step1; s1.AppliedTemplateID != s1.TemplateID {
		applyStarter(d, s1.TemplateID)
		s1.AppliedTemplateID = s1.TemplateID
	}
}

func normalizeStamp(s string, now time.Time) string {
	if t, ok := ParseTime(s); ok {
		return FormatTime(t)
	}
	return FormatTime(now)
}

func normalizeStep1(s *Step1) {
	if !Presets.ValidIndustry(s.Industry) {
		s.Industry = IndustryCorporate
	}

	color := Presets.MigrateColor(s.PrimaryColor)
	if _, ok := Presets.ColorHex(color); !ok {
		color = DefaultColor
	}
	s.PrimaryColor = color

	if s.Industry == IndustryWelfare {
		if !Presets.ValidWelfareDomain(s.WelfareDomain) {
			s.WelfareDomain = Presets.WelfareDomains[0].Value
		}
		if !Presets.ValidWelfareMode(s.WelfareMode) {
			s.WelfareMode = Presets.WelfareModes[0].Value
		}
	} else {
		s.WelfareDomain = ""
		s.WelfareMode = ""
	}
	s.TemplateID = ResolveTemplateID(*s)
}

func normalizeBlocks(b *Blocks) {
	b.Hero.HeroImageURLs = mergeHeroImages(b.Hero.HeroImageURL, b.Hero.HeroImageURLs, HeroImagesMax)
	b.Hero.HeroImageURL = firstOr(b.Hero.HeroImageURLs, "")

	pts := b.Philosophy.Points
	for len(pts) < PointsCount {
		pts = append(pts, "")
	}
	b.Philosophy.Points = pts[:PointsCount]

	svc := &b.Philosophy.Services
	if svc.Items == nil {
		svc.Items = []ServiceItem{}
	}
	if len(svc.Items) > ServicesMax {
		svc.Items = svc.Items[:ServicesMax]
	}

	if b.News.Items == nil {
		b.News.Items = []NewsItem{}
	}
	for i := range b.News.Items {
		if strings.TrimSpace(b.News.Items[i].Category) == "" {
			b.News.Items[i].Category = DefaultNewsCategory
		}
	}
	if b.FAQ.Items == nil {
		b.FAQ.Items = []FAQItem{}
	}
}

// normalizeLayout drops unknown and repeated kinds, keeping the relative
// order of the kinds that were there. A missing kind is inserted right after
// the kind preceding it in DefaultLayout, or first when it has none.
func normalizeLayout(in []SectionKind) []SectionKind {
	out := make([]SectionKind, 0, len(DefaultLayout))
	for _, k := range in {
		if slices.Contains(DefaultLayout, k) && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	for i, k := range DefaultLayout {
		if slices.Contains(out, k) {
			continue
		}
		at := 0
		if i > 0 {
			at = slices.Index(out, DefaultLayout[i-1]) + 1
		}
		out = slices.Insert(out, at, k)
	}
	return out
}

// SplitURLs splits a list of URLs separated by whitespace or commas.
func SplitURLs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '、' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
}

// HeroImages returns the slide URLs of h: the legacy single-URL field
// first, then the list, trimmed, without blanks or repeats. Normalized
// documents hold at most HeroImagesMax.
func HeroImages(h Hero) []string {
	return mergeHeroImages(h.HeroImageURL, h.HeroImageURLs, 0)
}

// mergeHeroImages keeps at most limit URLs; 0 keeps all.
func mergeHeroImages(legacy string, urls []string, limit int) []string {
	lead := SplitURLs(legacy)
	if l := strings.TrimSpace(legacy); slices.Contains(urls, l) {
		lead = []string{l}
	}
	out := make([]string, 0, len(lead)+len(urls))
	for _, u := range append(lead, urls...) {
		u = strings.TrimSpace(u)
		if u == "" || slices.Contains(out, u) {
			continue
		}
		if out = append(out, u); len(out) == limit {
			break
		}
	}
	return out
}

func firstOr(vs []string, def string) string {
	if len(vs) == 0 {
		return def
	}
	return vs[0]
}
