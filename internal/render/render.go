// Package render turns a project document into site markup. The same
// renderer produces the builder's live preview and the published site.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/vesaa/homebuilder/internal/project"
	"golang.org/x/text/unicode/norm"
)

// Mode selects the viewport the markup is laid out for.
type Mode string

const (
	ModeMobile Mode = "mobile"
	ModePC     Mode = "pc"
	ModeSite   Mode = "site"
)

// ErrUnknownMode is returned for a mode other than mobile, pc or site.
var ErrUnknownMode = errors.New("unknown render mode")

// ParseMode maps a query value onto a Mode. Empty selects pc.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModePC, nil
	case ModeMobile, ModePC, ModeSite:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Options controls one render.
type Options struct {
	Mode Mode
	// StylesheetHref links an external stylesheet instead of inlining it.
	// Site mode defaults to "style.css".
	StylesheetHref string
	// InlineCSS forces the stylesheet inline, even in site mode.
	InlineCSS bool
}

// Page is one rendered document.
type Page struct {
	Title string
	HTML  []byte
}

const (
	maxHeroImages   = project.HeroImagesMax
	maxPoints       = 6
	maxServiceItems = project.ServicesMax
)

type limits struct {
	news int
	faq  int
}

var modeLimits = map[Mode]limits{
	ModeMobile: {news: 3, faq: 4},
	ModePC:     {news: 4, faq: 5},
	ModeSite:   {news: 4, faq: 5},
}

// Section headings: badge, label.
var kickers = map[project.SectionKind]kicker{
	project.SectionHero:    {Badge: "HOME", Label: "ようこそ"},
	project.SectionNews:    {Badge: "NEWS", Label: "お知らせ"},
	project.SectionAbout:    {Badge: "ABOUT", Label: "私たちについて"},
	project.SectionServices: {Badge: "SERVICES", Label: "業務内容"},
	project.SectionFAQ:      {Badge: "FAQ", Label: "よくある質問"},
	project.SectionAccess:   {Badge: "ACCESS", Label: "アクセス"},
	project.SectionContact:  {Badge: "CONTACT", Label: "お問い合わせ"},
}

//go:embed assets/site.html.tmpl assets/style.css
var assets embed.FS

var tmpl = template.Must(template.New("site").ParseFS(assets, "assets/site.html.tmpl"))

type kicker struct {
	Badge string
	Label string
}

type navItem struct {
	Anchor string
	Label  string
}

type pageView struct {
	Mode           Mode
	Title          string
	CompanyName    string
	IndustryLabel  string
	FaviconURL     string
	ThemeVars      template.CSS
	InlineCSS      template.CSS
	StylesheetHref string
	Nav            []navItem
	Sections       []sectionView
	ContactAnchor  string
	Carousel       bool
}

type sectionView struct {
	Kind     project.SectionKind
	Anchor   string
	Kicker   kicker
	Hero     *heroView
	News     []newsView
	About    *aboutView
	Services *servicesView
	FAQ      []project.FAQItem
	Access   *accessView
	Contact  *contactView
}

type heroView struct {
	Heading         string
	SubCatch        string
	Images          []string
	PrimaryText     string
	PrimaryAnchor   string
	SecondaryText   string
	SecondaryAnchor string
}

type newsView struct {
	Date     string
	Category string
	Title    string
	Body     template.HTML
}

type aboutView struct {
	Title    string
	Body     string
	Points   []string
	ImageURL string
}

type servicesView struct {
	Title    string
	Lead     string
	ImageURL string
	Items    []project.ServiceItem
}

type accessView struct {
	Address string
	Notes   string
	MapURL  string
}

type contactView struct {
	Message    string
	Phone      string
	PhoneHref  template.URL
	Email      string
	EmailHref  template.URL
	Hours      string
	ButtonText string
	ButtonHref template.URL
}

// Render produces the page for d. Sections follow the document layout;
// sections missing their required fields are left out. Equal documents
// render to identical bytes.
func Render(d *project.Document, opts Options) (*Page, error) {
	if d == nil {
		return nil, errors.New("render: nil document")
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModePC
	}
	lim, ok := modeLimits[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	v := buildView(d, mode, lim)
	v.StylesheetHref = opts.StylesheetHref
	if v.StylesheetHref == "" && mode == ModeSite {
		v.StylesheetHref = StylesheetName
	}
	if opts.InlineCSS {
		v.StylesheetHref = ""
	}
	if v.StylesheetHref == "" {
		v.InlineCSS = template.CSS(Stylesheet())
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "page", v); err != nil {
		return nil, fmt.Errorf("render %s: %w", d.ProjectID, err)
	}
	return &Page{Title: v.Title, HTML: buf.Bytes()}, nil
}

func buildView(d *project.Document, mode Mode, lim limits) *pageView {
	s1, s2 := d.Data.Step1, d.Data.Step2

	v := &pageView{
		Mode:          mode,
		CompanyName:   clean(s2.CompanyName),
		IndustryLabel: industryLabel(s1),
		FaviconURL:    safeURL(s1.FaviconURL),
		ThemeVars:     themeVars(s1.PrimaryColor),
	}
	if v.CompanyName == "" {
		v.CompanyName = "会社名"
	}
	v.Title = v.CompanyName
	if cc := clean(s2.CatchCopy); cc != "" {
		v.Title = v.CompanyName + " | " + cc
	}

	layout := d.Data.Layout
	if len(layout) == 0 {
		layout = project.DefaultLayout
	}
	var sections []sectionView
	for _, kind := range layout {
		sec, ok := buildSection(d, kind, lim)
		if !ok {
			continue
		}
		sec.Kind = kind
		sec.Anchor = anchor(kind)
		sec.Kicker = kickers[kind]
		sections = append(sections, sec)
	}
	present := map[project.SectionKind]bool{}
	for _, sec := range sections {
		present[sec.Kind] = true
		if sec.Kind != project.SectionHero {
			v.Nav = append(v.Nav, navItem{Anchor: sec.Anchor, Label: sec.Kicker.Label})
		}
	}
	// Buttons only link to sections that were rendered.
	linkTo := func(kind project.SectionKind) string {
		if present[kind] {
			return anchor(kind)
		}
		return "top"
	}
	for i := range sections {
		if h := sections[i].Hero; h != nil {
			h.PrimaryAnchor = linkTo(project.SectionContact)
			h.SecondaryAnchor = linkTo(project.SectionAbout)
			if len(h.Images) > 1 {
				v.Carousel = true
			}
		}
	}
	if present[project.SectionContact] {
		v.ContactAnchor = anchor(project.SectionContact)
	}
	v.Sections = sections
	return v
}

func buildSection(d *project.Document, kind project.SectionKind, lim limits) (sectionView, bool) {
	b := d.Data.Blocks
	s2 := d.Data.Step2
	var sec sectionView

	switch kind {
	case project.SectionHero:
		heading := clean(s2.CatchCopy)
		if heading == "" {
			return sec, false
		}
		sec.Hero = &heroView{
			Heading:       heading,
			SubCatch:      clean(b.Hero.SubCatch),
			Images:        heroImages(b.Hero),
			PrimaryText:   clean(b.Hero.PrimaryButtonText),
			SecondaryText: clean(b.Hero.SecondaryButtonText),
		}

	case project.SectionNews:
		for _, it := range b.News.Items {
			title := clean(it.Title)
			if title == "" {
				continue
			}
			category := clean(it.Category)
			if category == "" {
				category = project.DefaultNewsCategory
			}
			sec.News = append(sec.News, newsView{
				Date:     clean(it.Date),
				Category: category,
				Title:    title,
				Body:     markdown(clean(it.Body)),
			})
			if len(sec.News) == lim.news {
				break
			}
		}
		if len(sec.News) == 0 {
			return sec, false
		}

	case project.SectionAbout:
		title, body := clean(b.Philosophy.Title), clean(b.Philosophy.Body)
		if title == "" && body == "" {
			return sec, false
		}
		about := &aboutView{Title: title, Body: body, ImageURL: safeURL(b.Philosophy.ImageURL)}
		if about.ImageURL == "" {
			about.ImageURL = project.Presets.AboutImageURL
		}
		for _, p := range b.Philosophy.Points {
			if p = clean(p); p != "" && len(about.Points) < maxPoints {
				about.Points = append(about.Points, p)
			}
		}
		sec.About = about

	case project.SectionServices:
		svc := b.Philosophy.Services
		sv := &servicesView{Title: clean(svc.Title), Lead: clean(svc.Lead), ImageURL: safeURL(svc.ImageURL)}
		for _, it := range svc.Items {
			title, body := clean(it.Title), clean(it.Body)
			if title == "" && body == "" {
				continue
			}
			if title == "" {
				title = "項目"
			}
			sv.Items = append(sv.Items, project.ServiceItem{Title: title, Body: body})
			if len(sv.Items) == maxServiceItems {
				break
			}
		}
		if sv.Lead == "" && len(sv.Items) == 0 {
			return sec, false
		}
		if sv.Title == "" {
			sv.Title = kickers[project.SectionServices].Label
		}
		if sv.ImageURL == "" {
			sv.ImageURL = project.Presets.ServicesImageURL
		}
		sec.Services = sv

	case project.SectionFAQ:
		for _, it := range b.FAQ.Items {
			q, a := clean(it.Q), clean(it.A)
			if q == "" || a == "" {
				continue
			}
			sec.FAQ = append(sec.FAQ, project.FAQItem{Q: q, A: a})
			if len(sec.FAQ) == lim.faq {
				break
			}
		}
		if len(sec.FAQ) == 0 {
			return sec, false
		}

	case project.SectionAccess:
		addr, mapURL := clean(s2.Address), safeURL(b.Access.MapURL)
		if addr == "" && mapURL == "" {
			return sec, false
		}
		if mapURL == "" {
			mapURL = MapsSearchURL(addr)
		}
		sec.Access = &accessView{Address: addr, Notes: clean(b.Access.Notes), MapURL: mapURL}

	case project.SectionContact:
		c := &contactView{
			Message: clean(b.Contact.Message),
			Phone:   clean(s2.Phone),
			Email:   clean(s2.Email),
			Hours:   clean(b.Contact.Hours),
		}
		if c.Message == "" && c.Phone == "" && c.Email == "" {
			return sec, false
		}
		if c.Phone != "" {
			c.PhoneHref = template.URL("tel:" + telDigits(c.Phone))
		}
		if c.Email != "" {
			c.EmailHref = template.URL("mailto:" + url.PathEscape(c.Email))
		}
		c.ButtonText = clean(b.Contact.ButtonText)
		if c.ButtonText == "" {
			c.ButtonText = clean(b.Hero.PrimaryButtonText)
		}
		switch {
		case c.EmailHref != "":
			c.ButtonHref = c.EmailHref
		case c.PhoneHref != "":
			c.ButtonHref = c.PhoneHref
		default:
			c.ButtonText = ""
		}
		sec.Contact = c

	default:
		return sec, false
	}
	return sec, true
}

func anchor(kind project.SectionKind) string { return "section-" + string(kind) }

// clean NFC-normalizes and trims user text.
func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// safeURL keeps absolute http(s) URLs and drops everything else.
func safeURL(raw string) string {
	raw = clean(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

// heroImages returns up to four safe slide URLs; without any, the preset
// photo is used.
func heroImages(h project.Hero) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range project.HeroImages(h) {
		u := safeURL(f)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if len(out) == maxHeroImages {
			break
		}
	}
	if len(out) > 0 {
		return out
	}
	if u, ok := project.Presets.HeroImageURL(h.HeroImage); ok {
		return []string{u}
	}
	return []string{project.Presets.DefaultHeroImageURL()}
}

// MapsSearchURL builds a Google Maps search link for an address.
func MapsSearchURL(address string) string {
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(address)
}

func telDigits(phone string) string {
	var b strings.Builder
	for _, r := range norm.NFKC.String(phone) {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func industryLabel(s project.Step1) string {
	label := clean(s.Industry)
	if s.Industry == project.IndustryWelfare {
		var parts []string
		for _, p := range []string{s.WelfareDomain, s.WelfareMode} {
			if p = clean(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			label += "（" + strings.Join(parts, " / ") + "）"
		}
	}
	return label
}
