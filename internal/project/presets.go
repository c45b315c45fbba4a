package project

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Preset values stored in documents.
const (
	IndustryCorporate = "会社サイト（企業）"
	IndustryWelfare   = "福祉事業所"
	IndustryPersonal  = "個人事業"
	IndustryOther     = "その他"

	WelfareCare       = "介護福祉サービス"
	WelfareDisability = "障がい福祉サービス"
	WelfareChild      = "児童福祉サービス"

	ModeResidential = "入所系"
	ModeDay         = "通所系"

	DefaultColor     = "blue"
	DefaultHeroImage = "A: オフィス"
)

//go:embed presets.yaml
var presetsYAML []byte

// Option is one selectable preset value.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
	Hint  string `yaml:"hint" json:"hint,omitempty"`
}

// Color is a theme color preset.
type Color struct {
	Value      string `yaml:"value" json:"value"`
	Label      string `yaml:"label" json:"label"`
	Impression string `yaml:"impression" json:"impression"`
	Hex        string `yaml:"hex" json:"hex"`
}

// HeroImage maps a preset key to a stock photo URL.
type HeroImage struct {
	Key string `yaml:"key" json:"key"`
	URL string `yaml:"url" json:"url"`
}

// Catalog is the full preset set shown by the builder.
type Catalog struct {
	Industries       []Option          `yaml:"industries" json:"industries"`
	WelfareDomains   []Option          `yaml:"welfare_domains" json:"welfare_domains"`
	WelfareModes     []Option          `yaml:"welfare_modes" json:"welfare_modes"`
	Colors           []Color           `yaml:"colors" json:"colors"`
	ColorMigration   map[string]string `yaml:"color_migration" json:"-"`
	HeroImages       []HeroImage       `yaml:"hero_images" json:"hero_images"`
	AboutImageURL    string            `yaml:"about_image_url" json:"about_image_url"`
	ServicesImageURL string            `yaml:"services_image_url" json:"services_image_url"`
}

// Presets is the catalog parsed from the embedded presets.yaml.
var Presets = mustLoadCatalog(presetsYAML)

func mustLoadCatalog(raw []byte) *Catalog {
	c, err := loadCatalog(raw)
	if err != nil {
		panic("presets: " + err.Error())
	}
	return c
}

func loadCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing presets: %w", err)
	}
	if len(c.Industries) == 0 || len(c.Colors) == 0 || len(c.HeroImages) == 0 {
		return nil, fmt.Errorf("presets: industries, colors and hero_images must not be empty")
	}
	if len(c.WelfareDomains) == 0 || len(c.WelfareModes) == 0 {
		return nil, fmt.Errorf("presets: welfare domains and modes must not be empty")
	}
	return &c, nil
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

// ValidIndustry reports whether v is a known industry value.
func (c *Catalog) ValidIndustry(v string) bool { return hasOption(c.Industries, v) }

// ValidWelfareDomain reports whether v is a known welfare domain.
func (c *Catalog) ValidWelfareDomain(v string) bool { return hasOption(c.WelfareDomains, v) }

// ValidWelfareMode reports whether v is a known welfare mode.
func (c *Catalog) ValidWelfareMode(v string) bool { return hasOption(c.WelfareModes, v) }

// ColorHex returns the swatch hex for a color value.
func (c *Catalog) ColorHex(v string) (string, bool) {
	for _, col := range c.Colors {
		if col.Value == v {
			return col.Hex, true
		}
	}
	return "", false
}

// MigrateColor maps legacy color names onto current presets.
func (c *Catalog) MigrateColor(v string) string {
	if m, ok := c.ColorMigration[v]; ok {
		return m
	}
	return v
}

// HeroImageURL returns the URL for a hero preset key.
func (c *Catalog) HeroImageURL(key string) (string, bool) {
	for _, h := range c.HeroImages {
		if h.Key == key {
			return h.URL, true
		}
	}
	return "", false
}

// DefaultHeroImageURL is the URL used when nothing else resolves.
func (c *Catalog) DefaultHeroImageURL() string {
	if u, ok := c.HeroImageURL(DefaultHeroImage); ok {
		return u
	}
	return c.HeroImages[0].URL
}
