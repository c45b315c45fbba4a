// Package project defines the project document edited by the builder:
// a site's settings, basic info and content blocks, plus the ordered layout
// of sections. Documents are plain data; rendering lives in package render.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is written into every normalized document.
const SchemaVersion = "0.6.1"

// ErrInvalidDocument is returned when a payload is not a JSON object.
var ErrInvalidDocument = errors.New("invalid project document")

// SectionKind names one renderable section of the site.
type SectionKind string

const (
	SectionHero     SectionKind = "hero"
	SectionNews     SectionKind = "news"
	SectionAbout    SectionKind = "about"
	SectionServices SectionKind = "services"
	SectionFAQ      SectionKind = "faq"
	SectionAccess   SectionKind = "access"
	SectionContact  SectionKind = "contact"
)

// DefaultLayout is the section order of a fresh document.
var DefaultLayout = []SectionKind{SectionHero, SectionNews, SectionAbout, SectionServices, SectionFAQ, SectionAccess, SectionContact}

// List caps.
const (
	HeroImagesMax = 4
	ServicesMax   = 6
)

// Document is one website project.
type Document struct {
	SchemaVersion string            `json:"schema_version"`
	ProjectID     string            `json:"project_id"`
	ProjectName   string            `json:"project_name"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
	CreatedBy     string            `json:"created_by"`
	UpdatedBy     string            `json:"updated_by"`
	Data          Data              `json:"data"`
	Guides        map[string]string `json:"guides,omitempty"`
}

// Data is the editable body of a document.
type Data struct {
	Step1  Step1         `json:"step1"`
	Step2  Step2         `json:"step2"`
	Blocks Blocks        `json:"blocks"`
	Layout []SectionKind `json:"layout"`
}

// Step1 holds industry and theme settings.
type Step1 struct {
	Industry      string `json:"industry"`
	PrimaryColor  string `json:"primary_color"`
	WelfareDomain string `json:"welfare_domain"`
	WelfareMode   string `json:"welfare_mode"`
	TemplateID    string `json:"template_id"`
	FaviconURL    string `json:"favicon_url,omitempty"`

	// AppliedTemplateID is the template whose starter copy was last applied.
	AppliedTemplateID string `json:"applied_template_id,omitempty"`
}

// Step2 holds the organisation's basic info.
type Step2 struct {
	CompanyName string `json:"company_name"`
	CatchCopy   string `json:"catch_copy"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Email       string `json:"email"`
}

// Blocks holds per-section content.
type Blocks struct {
	Hero       Hero       `json:"hero"`
	Philosophy Philosophy `json:"philosophy"`
	News       News       `json:"news"`
	FAQ        FAQ        `json:"faq"`
	Access     Access     `json:"access"`
	Contact    Contact    `json:"contact"`
}

// Hero is the top banner. HeroImageURLs holds up to four slides;
// HeroImageURL mirrors the first one for older readers.
type Hero struct {
	SubCatch            string   `json:"sub_catch"`
	HeroImage           string   `json:"hero_image"`
	HeroImageURL        string   `json:"hero_image_url"`
	HeroImageURLs       []string `json:"hero_image_urls"`
	PrimaryButtonText   string   `json:"primary_button_text"`
	SecondaryButtonText string   `json:"secondary_button_text"`
}

type Philosophy struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Points   []string `json:"points"`
	ImageURL string   `json:"image_url,omitempty"`
	Services Services `json:"services"`
}

// Services is the 業務内容 block. It is stored inside philosophy and
// rendered as its own section.
type Services struct {
	Title    string        `json:"title"`
	Lead     string        `json:"lead"`
	ImageURL string        `json:"image_url"`
	Items    []ServiceItem `json:"items"`
}

type ServiceItem struct {
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
}

type News struct {
	Items []NewsItem `json:"items"`
}

type NewsItem struct {
	Date     string `json:"date"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

type FAQ struct {
	Items []FAQItem `json:"items"`
}

type FAQItem struct {
	Q string `json:"q" yaml:"q"`
	A string `json:"a" yaml:"a"`
}

type Access struct {
	MapURL string `json:"map_url"`
	Notes  string `json:"notes"`
}

type Contact struct {
	Hours      string `json:"hours"`
	Message    string `json:"message"`
	ButtonText string `json:"button_text"`
}

// Sample copy placed into new documents. Starter defaults only replace text
// that still equals these samples.
const (
	sampleSubCatch        = "地域に寄り添い、安心できるサービスを届けます"
	samplePrimaryButton   = "お問い合わせ"
	sampleSecondaryButton = "見学・相談"
	samplePhilosophyTitle = "私たちの想い"
	samplePhilosophyBody  = "ここに理念や会社の紹介文を書きます。\n（あとで自由に書き換えできます）"
	sampleAccessNotes     = "（例）〇〇駅から徒歩5分 / 駐車場あり"
	sampleContactHours    = "平日 9:00〜18:00"
	sampleContactMessage  = "まずはお気軽にご相談ください。"
	sampleCatchCopy       = "スタッフ・利用者の笑顔を守る企業"
	sampleServicesTitle   = "業務内容"
	sampleServicesLead    = "提供サービスの概要をここに記載します。"

	// DefaultNewsCategory is used when a news item has no category.
	DefaultNewsCategory = "お知らせ"
)

var samplePoints = []string{"地域密着", "丁寧な対応", "安心の体制"}

func sampleNews(now time.Time) []NewsItem {
	return []NewsItem{{
		Date:     now.In(JST).Format(DateLayout),
		Category: DefaultNewsCategory,
		Title:    "サンプル：ホームページを公開しました",
		Body:     "ここにお知らせ本文を書きます。\n（あとで自由に書き換えできます）",
	}}
}

func sampleServices() []ServiceItem {
	return []ServiceItem{
		{Title: "サービス1", Body: "内容をここに記載します。"},
		{Title: "サービス2", Body: "内容をここに記載します。"},
		{Title: "サービス3", Body: "内容をここに記載します。"},
	}
}

func sampleFAQ() []FAQItem {
	return []FAQItem{
		{Q: "サンプル：見学はできますか？", A: "はい。お電話またはメールでお気軽にご連絡ください。"},
		{Q: "サンプル：費用はどのくらいですか？", A: "内容により異なります。まずはご要望をお聞かせください。"},
	}
}

// skeleton returns a document whose scalar fields carry the defaults.
// JSON decoded on top of it keeps a default wherever the key is absent.
// Slices stay nil so absence can be told apart from an empty list.
func skeleton() Document {
	return Document{
		SchemaVersion: SchemaVersion,
		ProjectName:   "(no name)",
		Data: Data{
			Step1: Step1{Industry: IndustryCorporate, PrimaryColor: DefaultColor},
			Step2: Step2{CatchCopy: sampleCatchCopy},
			Blocks: Blocks{
				Hero: Hero{
					SubCatch:            sampleSubCatch,
					HeroImage:           DefaultHeroImage,
					PrimaryButtonText:   samplePrimaryButton,
					SecondaryButtonText: sampleSecondaryButton,
				},
				Philosophy: Philosophy{
					Title:    samplePhilosophyTitle,
					Body:     samplePhilosophyBody,
					Services: Services{Title: sampleServicesTitle, Lead: sampleServicesLead},
				},
				Access:     Access{Notes: sampleAccessNotes},
				Contact:    Contact{Hours: sampleContactHours, Message: sampleContactMessage, ButtonText: samplePrimaryButton},
			},
		},
	}
}

// fillAbsentLists puts sample content into lists that were never set.
func fillAbsentLists(d *Document, now time.Time) {
	b := &d.Data.Blocks
	if b.Philosophy.Points == nil {
		b.Philosophy.Points = append([]string(nil), samplePoints...)
	}
	if b.Philosophy.Services.Items == nil {
		b.Philosophy.Services.Items = sampleServices()
	}
	if b.News.Items == nil {
		b.News.Items = sampleNews(now)
	}
	if b.FAQ.Items == nil {
		b.FAQ.Items = sampleFAQ()
	}
}

// NewID returns a project id such as p20250101093000_a1b2c3.
func NewID(now time.Time) string {
	rnd := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("p%s_%s", now.In(JST).Format("20060102150405"), rnd)
}

// New creates a normalized document with sample content.
func New(name, createdBy string, now time.Time) *Document {
	d := skeleton()
	d.ProjectID = NewID(now)
	if name = strings.TrimSpace(name); name != "" {
		d.ProjectName = name
	}
	stamp := FormatTime(now)
	d.CreatedAt, d.UpdatedAt = stamp, stamp
	d.CreatedBy, d.UpdatedBy = createdBy, createdBy
	fillAbsentLists(&d, now)
	Normalize(&d, now)
	return &d
}

// FromTemplate clones src into a new project: content and settings are kept,
// identity and timestamps are fresh.
func FromTemplate(src *Document, name, createdBy string, now time.Time) *Document {
	d := Clone(src)
	d.ProjectID = NewID(now)
	if name = strings.TrimSpace(name); name != "" {
		d.ProjectName = name
	}
	stamp := FormatTime(now)
	d.CreatedAt, d.UpdatedAt = stamp, stamp
	d.CreatedBy, d.UpdatedBy = createdBy, createdBy
	Normalize(d, now)
	return d
}

// Clone returns a deep copy of d.
func Clone(d *Document) *Document {
	if d == nil {
		return nil
	}
	c := *d
	b := &c.Data.Blocks
	c.Data.Layout = slices.Clone(d.Data.Layout)
	b.Hero.HeroImageURLs = slices.Clone(b.Hero.HeroImageURLs)
	b.Philosophy.Points = slices.Clone(b.Philosophy.Points)
	b.Philosophy.Services.Items = slices.Clone(b.Philosophy.Services.Items)
	b.News.Items = slices.Clone(b.News.Items)
	b.FAQ.Items = slices.Clone(b.FAQ.Items)
	if d.Guides != nil {
		c.Guides = make(map[string]string, len(d.Guides))
		for k, v := range d.Guides {
			c.Guides[k] = v
		}
	}
	return &c
}

// Decode parses a stored document and normalizes it. Legacy payloads that
// carry step1/step2/blocks at the top level are accepted.
func Decode(raw []byte, now time.Time) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidDocument)
	}
	if _, ok := top["data"]; !ok {
		data := map[string]json.RawMessage{}
		for _, k := range []string{"step1", "step2", "blocks", "layout"} {
			if v, ok := top[k]; ok {
				data[k] = v
				delete(top, k)
			}
		}
		if len(data) > 0 {
			wrapped, err := json.Marshal(data)
			if err != nil {
				return nil, fmt.Errorf("wrapping legacy payload: %w", err)
			}
			top["data"] = wrapped
		}
	}
	merged, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("re-encoding document: %w", err)
	}

	d := skeleton()
	if err := json.Unmarshal(merged, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	fillAbsentLists(&d, now)
	Normalize(&d, now)
	return &d, nil
}

// Encode serializes d as indented JSON without HTML escaping.
func Encode(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encoding project %s: %w", d.ProjectID, err)
	}
	return buf.Bytes(), nil
}

// Summary is the listing view of a project.
type Summary struct {
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	UpdatedBy   string `json:"updated_by"`
}

// Summarize returns the listing view of d.
func (d *Document) Summarize() Summary {
	return Summary{
		ProjectID:   d.ProjectID,
		ProjectName: d.ProjectName,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		UpdatedBy:   d.UpdatedBy,
	}
}

// Touch stamps the document as updated by user at now.
func (d *Document) Touch(user string, now time.Time) {
	d.UpdatedAt = FormatTime(now)
	if user != "" {
		d.UpdatedBy = user
	}
}
