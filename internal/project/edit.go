package project

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnknownField is returned for edit paths that name no document field.
	ErrUnknownField = errors.New("unknown field")
	// ErrIndexOutOfRange is returned for list edits past the end of the list.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidValue is returned when a preset field is set to an unknown value.
	ErrInvalidValue = errors.New("invalid value")
)

// Edit operations.
const (
	OpSet    = "set"
	OpAdd    = "add"
	OpDelete = "delete"
	OpMove   = "move"
)

// Edit is one builder form change expressed as data.
//
//	{"op":"set","path":"step2.company_name","value":"Acme"}
//	{"op":"set","path":"news.0.title","value":"Open day"}
//	{"op":"set","path":"hero.hero_image_urls","value":"https://a/1.jpg\nhttps://a/2.jpg"}
//	{"op":"add","path":"faq"}
//	{"op":"delete","path":"news.2"}
//	{"op":"delete","path":"services.1"}
//	{"op":"move","path":"faq","value":"up"}
type Edit struct {
	Op    string `json:"op" binding:"required"`
	Path  string `json:"path" binding:"required"`
	Value string `json:"value"`
}

// scalarFields maps edit paths onto the string they write.
var scalarFields = map[string]func(d *Document) *string{
	"project_name": func(d *Document) *string { return &d.ProjectName },

	"step1.industry":       func(d *Document) *string { return &d.Data.Step1.Industry },
	"step1.primary_color":  func(d *Document) *string { return &d.Data.Step1.PrimaryColor },
	"step1.welfare_domain": func(d *Document) *string { return &d.Data.Step1.WelfareDomain },
	"step1.welfare_mode":   func(d *Document) *string { return &d.Data.Step1.WelfareMode },
	"step1.favicon_url":    func(d *Document) *string { return &d.Data.Step1.FaviconURL },

	"step2.company_name": func(d *Document) *string { return &d.Data.Step2.CompanyName },
	"step2.catch_copy":   func(d *Document) *string { return &d.Data.Step2.CatchCopy },
	"step2.phone":        func(d *Document) *string { return &d.Data.Step2.Phone },
	"step2.address":      func(d *Document) *string { return &d.Data.Step2.Address },
	"step2.email":        func(d *Document) *string { return &d.Data.Step2.Email },

	"hero.sub_catch":             func(d *Document) *string { return &d.Data.Blocks.Hero.SubCatch },
	"hero.hero_image":            func(d *Document) *string { return &d.Data.Blocks.Hero.HeroImage },
	"hero.hero_image_url":        func(d *Document) *string { return &d.Data.Blocks.Hero.HeroImageURL },
	"hero.primary_button_text":   func(d *Document) *string { return &d.Data.Blocks.Hero.PrimaryButtonText },
	"hero.secondary_button_text": func(d *Document) *string { return &d.Data.Blocks.Hero.SecondaryButtonText },

	"philosophy.title":     func(d *Document) *string { return &d.Data.Blocks.Philosophy.Title },
	"philosophy.body":      func(d *Document) *string { return &d.Data.Blocks.Philosophy.Body },
	"philosophy.image_url": func(d *Document) *string { return &d.Data.Blocks.Philosophy.ImageURL },

	"services.title":     func(d *Document) *string { return &d.Data.Blocks.Philosophy.Services.Title },
	"services.lead":      func(d *Document) *string { return &d.Data.Blocks.Philosophy.Services.Lead },
	"services.image_url": func(d *Document) *string { return &d.Data.Blocks.Philosophy.Services.ImageURL },

	"access.map_url": func(d *Document) *string { return &d.Data.Blocks.Access.MapURL },
	"access.notes":   func(d *Document) *string { return &d.Data.Blocks.Access.Notes },

	"contact.hours":       func(d *Document) *string { return &d.Data.Blocks.Contact.Hours },
	"contact.message":     func(d *Document) *string { return &d.Data.Blocks.Contact.Message },
	"contact.button_text": func(d *Document) *string { return &d.Data.Blocks.Contact.ButtonText },
}

// presetCheck validates preset-backed fields before they are written.
var presetCheck = map[string]func(v string) bool{
	"step1.industry":       Presets.ValidIndustry,
	"step1.welfare_domain": Presets.ValidWelfareDomain,
	"step1.welfare_mode":   Presets.ValidWelfareMode,
	"step1.primary_color": func(v string) bool {
		_, ok := Presets.ColorHex(v)
		return ok
	},
	"hero.hero_image": func(v string) bool {
		_, ok := Presets.HeroImageURL(v)
		return ok
	},
}

// EditableFields lists every scalar edit path.
func EditableFields() []string {
	out := make([]string, 0, len(scalarFields))
	for k := range scalarFields {
		out = append(out, k)
	}
	return out
}

// Apply performs e on d. now dates news items added by the edit.
// The template id is re-resolved afterwards.
func Apply(d *Document, e Edit, now time.Time) error {
	var err error
	switch e.Op {
	case OpSet:
		err = applySet(d, e.Path, e.Value)
	case OpAdd:
		err = applyAdd(d, e.Path, now)
	case OpDelete:
		err = applyDelete(d, e.Path)
	case OpMove:
		err = applyMove(d, SectionKind(e.Path), e.Value)
	default:
		return fmt.Errorf("%w: op %q", ErrUnknownField, e.Op)
	}
	if err != nil {
		return err
	}
	d.Data.Step1.TemplateID = ResolveTemplateID(d.Data.Step1)
	return nil
}

func applySet(d *Document, path, value string) error {
	if field, ok := scalarFields[path]; ok {
		if check, ok := presetCheck[path]; ok && !check(value) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, path, value)
		}
		*field(d) = value
		return nil
	}

	parts := strings.Split(path, ".")
	b := &d.Data.Blocks
	switch {
	case path == "hero.hero_image_urls":
		setHeroImages(&b.Hero, SplitURLs(value))
		return nil

	case len(parts) == 3 && parts[0] == "hero" && parts[1] == "hero_image_urls":
		urls := HeroImages(b.Hero)
		i, err := index(parts[2], len(urls))
		if err != nil {
			return err
		}
		urls[i] = value
		setHeroImages(&b.Hero, urls)
		return nil

	case len(parts) == 3 && parts[0] == "services":
		items := b.Philosophy.Services.Items
		i, err := index(parts[1], len(items))
		if err != nil {
			return err
		}
		switch parts[2] {
		case "title":
			items[i].Title = value
		case "body":
			items[i].Body = value
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		return nil

	case len(parts) == 3 && parts[0] == "philosophy" && parts[1] == "points":
		i, err := index(parts[2], len(b.Philosophy.Points))
		if err != nil {
			return err
		}
		b.Philosophy.Points[i] = value
		return nil

	case len(parts) == 3 && parts[0] == "news":
		i, err := index(parts[1], len(b.News.Items))
		if err != nil {
			return err
		}
		it := &b.News.Items[i]
		switch parts[2] {
		case "date":
			it.Date = value
		case "category":
			it.Category = value
		case "title":
			it.Title = value
		case "body":
			it.Body = value
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		return nil

	case len(parts) == 3 && parts[0] == "faq":
		i, err := index(parts[1], len(b.FAQ.Items))
		if err != nil {
			return err
		}
		switch parts[2] {
		case "q":
			b.FAQ.Items[i].Q = value
		case "a":
			b.FAQ.Items[i].A = value
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownField, path)
}

// setHeroImages replaces the slide list and keeps the legacy field on the first slide.
func setHeroImages(h *Hero, urls []string) {
	h.HeroImageURLs = mergeHeroImages("", urls, HeroImagesMax)
	h.HeroImageURL = firstOr(h.HeroImageURLs, "")
}

// applyAdd prepends a dated news item (newest first) or appends an empty
// FAQ or services entry.
func applyAdd(d *Document, list string, now time.Time) error {
	b := &d.Data.Blocks
	switch list {
	case "news":
		item := NewsItem{Date: now.In(JST).Format(DateLayout), Category: DefaultNewsCategory}
		b.News.Items = append([]NewsItem{item}, b.News.Items...)
	case "faq":
		b.FAQ.Items = append(b.FAQ.Items, FAQItem{})
	case "services":
		svc := &b.Philosophy.Services
		if len(svc.Items) >= ServicesMax {
			return fmt.Errorf("%w: services holds at most %d items", ErrIndexOutOfRange, ServicesMax)
		}
		svc.Items = append(svc.Items, ServiceItem{})
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, list)
	}
	return nil
}

// applyDelete removes one entry of a list path such as news.2.
func applyDelete(d *Document, path string) error {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	list, at := path[:dot], path[dot+1:]
	b := &d.Data.Blocks
	switch list {
	case "news":
		i, err := index(at, len(b.News.Items))
		if err != nil {
			return err
		}
		b.News.Items = slices.Delete(b.News.Items, i, i+1)
	case "faq":
		i, err := index(at, len(b.FAQ.Items))
		if err != nil {
			return err
		}
		b.FAQ.Items = slices.Delete(b.FAQ.Items, i, i+1)
	case "services":
		svc := &b.Philosophy.Services
		i, err := index(at, len(svc.Items))
		if err != nil {
			return err
		}
		svc.Items = slices.Delete(svc.Items, i, i+1)
	case "hero.hero_image_urls":
		urls := HeroImages(b.Hero)
		i, err := index(at, len(urls))
		if err != nil {
			return err
		}
		setHeroImages(&b.Hero, slices.Delete(urls, i, i+1))
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	return nil
}

// applyMove shifts a section one slot up or down. Moving past either end is a no-op.
func applyMove(d *Document, kind SectionKind, dir string) error {
	layout := normalizeLayout(d.Data.Layout)
	at := -1
	for i, k := range layout {
		if k == kind {
			at = i
			break
		}
	}
	if at < 0 {
		return fmt.Errorf("%w: section %q", ErrUnknownField, kind)
	}
	to := at
	switch dir {
	case "up":
		to = at - 1
	case "down":
		to = at + 1
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidValue, dir)
	}
	if to >= 0 && to < len(layout) {
		layout[at], layout[to] = layout[to], layout[at]
	}
	d.Data.Layout = layout
	return nil
}

func index(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, n)
	}
	return i, nil
}
