package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTemplateID(t *testing.T) {
	tests := []struct {
		name string
		in   Step1
		want string
	}{
		{"corporate default", Step1{}, TemplateCorporate},
		{"corporate", Step1{Industry: IndustryCorporate}, TemplateCorporate},
		{"personal", Step1{Industry: IndustryPersonal}, TemplatePersonal},
		{"other", Step1{Industry: IndustryOther}, TemplateFree},
		{"welfare defaults to first domain, residential", Step1{Industry: IndustryWelfare}, TemplateCareResidential},
		{"care day", Step1{Industry: IndustryWelfare, WelfareDomain: WelfareCare, WelfareMode: ModeDay}, TemplateCareDay},
		{"disability residential", Step1{Industry: IndustryWelfare, WelfareDomain: WelfareDisability, WelfareMode: ModeResidential}, TemplateDisabilityResidential},
		{"disability day", Step1{Industry: IndustryWelfare, WelfareDomain: WelfareDisability, WelfareMode: ModeDay}, TemplateDisabilityDay},
		{"child day", Step1{Industry: IndustryWelfare, WelfareDomain: WelfareChild, WelfareMode: ModeDay}, TemplateChildDay},
		{"unknown domain", Step1{Industry: IndustryWelfare, WelfareDomain: "x"}, TemplateWelfare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTemplateID(tt.in))
		})
	}
}

func TestNormalizeClampsEnums(t *testing.T) {
	d := New("n", "", fixedNow)
	d.Data.Step1.Industry = "bogus"
	d.Data.Step1.PrimaryColor = "teal"
	d.Data.Step1.WelfareDomain = WelfareChild
	d.Data.Step1.WelfareMode = ModeDay

	Normalize(d, fixedNow)

	assert.Equal(t, IndustryCorporate, d.Data.Step1.Industry)
	assert.Equal(t, "green", d.Data.Step1.PrimaryColor, "legacy teal migrates to green")
	assert.Empty(t, d.Data.Step1.WelfareDomain, "welfare fields cleared outside welfare")
	assert.Empty(t, d.Data.Step1.WelfareMode)

	d.Data.Step1.PrimaryColor = "chartreuse"
	Normalize(d, fixedNow)
	assert.Equal(t, DefaultColor, d.Data.Step1.PrimaryColor)
}

func TestNormalizeWelfareFillsDomainAndMode(t *testing.T) {
	d := New("n", "", fixedNow)
	d.Data.Step1.Industry = IndustryWelfare
	d.Data.Step1.WelfareDomain = "nope"

	Normalize(d, fixedNow)

	assert.Equal(t, WelfareCare, d.Data.Step1.WelfareDomain)
	assert.Equal(t, ModeResidential, d.Data.Step1.WelfareMode)
	assert.Equal(t, TemplateCareResidential, d.Data.Step1.TemplateID)
}

func TestNormalizePointsAlwaysThree(t *testing.T) {
	d := New("n", "", fixedNow)
	d.Data.Blocks.Philosophy.Points = []string{"a"}
	Normalize(d, fixedNow)
	assert.Equal(t, []string{"a", "", ""}, d.Data.Blocks.Philosophy.Points)

	d.Data.Blocks.Philosophy.Points = []string{"a", "b", "c", "d", "e"}
	Normalize(d, fixedNow)
	assert.Equal(t, []string{"a", "b", "c"}, d.Data.Blocks.Philosophy.Points)
}

func TestNormalizeLayoutRepairsOrderPreserving(t *testing.T) {
	got := normalizeLayout([]SectionKind{SectionFAQ, "bogus", SectionHero, SectionFAQ})
	assert.Equal(t, []SectionKind{
		SectionFAQ, SectionAccess, SectionContact, SectionHero, SectionNews, SectionAbout, SectionServices,
	}, got)
	assert.Equal(t, DefaultLayout, normalizeLayout(nil))
}

func TestNormalizeLayoutSlotsServicesAfterAbout(t *testing.T) {
	stored := []SectionKind{SectionHero, SectionAbout, SectionNews, SectionFAQ, SectionAccess, SectionContact}
	assert.Equal(t, []SectionKind{
		SectionHero, SectionAbout, SectionServices, SectionNews, SectionFAQ, SectionAccess, SectionContact,
	}, normalizeLayout(stored))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, industry := range []string{IndustryCorporate, IndustryWelfare, IndustryPersonal, IndustryOther} {
		d := New("n", "", fixedNow)
		d.Data.Step1.Industry = industry
		d.Data.Step1.WelfareMode = ModeDay
		Normalize(d, fixedNow)

		once := Clone(d)
		Normalize(d, fixedNow.Add(1000))
		assert.Equal(t, once, d, industry)
	}
}

func TestDayServiceStarterReplacesOnlySampleCopy(t *testing.T) {
	d := New("n", "", fixedNow)
	d.Data.Blocks.Hero.SubCatch = "operator wrote this"
	d.Data.Step1.Industry = IndustryWelfare
	d.Data.Step1.WelfareDomain = WelfareDisability
	d.Data.Step1.WelfareMode = ModeDay

	Normalize(d, fixedNow)

	require.Equal(t, TemplateDisabilityDay, d.Data.Step1.TemplateID)
	assert.Equal(t, "green", d.Data.Step1.PrimaryColor)
	assert.Equal(t, "operator wrote this", d.Data.Blocks.Hero.SubCatch)
	assert.Equal(t, "見学・体験を予約", d.Data.Blocks.Hero.PrimaryButtonText)
	assert.Equal(t, "B: チーム", d.Data.Blocks.Hero.HeroImage)
	assert.Equal(t, "私たちの支援", d.Data.Blocks.Philosophy.Title)
	assert.Len(t, d.Data.Blocks.FAQ.Items, 4)
	assert.Equal(t, []string{"見学・体験OK", "個別支援", "少人数"}, d.Data.Blocks.Philosophy.Points)
	assert.Equal(t, "特徴", d.Data.Blocks.Philosophy.Services.Title)
	assert.Equal(t, "活動の充実", d.Data.Blocks.Philosophy.Services.Items[0].Title)
	assert.Contains(t, d.Guides, "photo_direction_day_service")
	assert.Equal(t, TemplateDisabilityDay, d.Data.Step1.AppliedTemplateID)
}

func TestStarterForEveryTemplate(t *testing.T) {
	for _, id := range []string{
		TemplateCorporate, TemplatePersonal, TemplateFree, TemplateWelfare,
		TemplateCareResidential, TemplateCareDay,
		TemplateDisabilityResidential, TemplateDisabilityDay,
		TemplateChildResidential, TemplateChildDay,
	} {
		st, ok := StarterFor(id)
		require.True(t, ok, id)
		assert.NotEmpty(t, st.CatchCopy, id)
		assert.Len(t, st.Points, PointsCount, id)
		assert.NotEmpty(t, st.ServiceItems, id)
		assert.LessOrEqual(t, len(st.ServiceItems), ServicesMax, id)
		assert.NotEmpty(t, st.FAQ, id)
		_, known := Presets.HeroImageURL(st.HeroImage)
		assert.True(t, known, "%s hero image %q", id, st.HeroImage)
	}
	_, ok := StarterFor("nope")
	assert.False(t, ok)

	welfare, _ := StarterFor(TemplateWelfare)
	careDay, _ := StarterFor(TemplateCareDay)
	assert.Equal(t, careDay, welfare)
}

func TestStarterFollowsTemplateSwitches(t *testing.T) {
	d := New("n", "", fixedNow)
	d.Data.Step1.Industry = IndustryWelfare
	d.Data.Step1.WelfareDomain = WelfareCare
	d.Data.Step1.WelfareMode = ModeResidential
	Normalize(d, fixedNow)

	require.Equal(t, TemplateCareResidential, d.Data.Step1.TemplateID)
	assert.Equal(t, "安心して暮らせる、あたたかな住まい", d.Data.Step2.CatchCopy)
	assert.Equal(t, "入居相談", d.Data.Blocks.Hero.PrimaryButtonText)
	assert.Equal(t, "G: 家", d.Data.Blocks.Hero.HeroImage)
	assert.Equal(t, "施設紹介", d.Data.Blocks.Philosophy.Title)
	assert.Equal(t, []string{"清潔な居室", "日々の見守り", "医療連携"}, d.Data.Blocks.Philosophy.Points)
	assert.Equal(t, "サービス内容", d.Data.Blocks.Philosophy.Services.Title)
	assert.Equal(t, "見学はできますか？", d.Data.Blocks.FAQ.Items[0].Q)
	assert.Equal(t, DefaultColor, d.Data.Step1.PrimaryColor, "only day-service switches the color")

	d.Data.Blocks.Philosophy.Title = "ようこそ"
	d.Data.Step1.Industry = IndustryCorporate
	Normalize(d, fixedNow)

	require.Equal(t, TemplateCorporate, d.Data.Step1.TemplateID)
	assert.Equal(t, sampleCatchCopy, d.Data.Step2.CatchCopy, "starter copy is swapped back")
	assert.Equal(t, samplePoints, d.Data.Blocks.Philosophy.Points)
	assert.Equal(t, "ようこそ", d.Data.Blocks.Philosophy.Title, "edited text survives")
	assert.Equal(t, "サービス1", d.Data.Blocks.Philosophy.Services.Items[0].Title)
}

func TestStarterAppliesOncePerTemplate(t *testing.T) {
	d := New("n", "", fixedNow)
	d.Data.Step2.CatchCopy = ""
	Normalize(d, fixedNow)
	assert.Empty(t, d.Data.Step2.CatchCopy, "cleared text stays cleared while the template is unchanged")

	d.Data.Blocks.FAQ.Items = []FAQItem{}
	d.Data.Blocks.Philosophy.Services.Items = []ServiceItem{}
	d.Data.Step1.Industry = IndustryWelfare
	Normalize(d, fixedNow)

	assert.Equal(t, "安心して暮らせる、あたたかな住まい", d.Data.Step2.CatchCopy, "blank text takes the new starter")
	assert.Empty(t, d.Data.Blocks.FAQ.Items, "emptied lists are kept")
	assert.Empty(t, d.Data.Blocks.Philosophy.Services.Items)
}

func TestNormalizeServices(t *testing.T) {
	d := New("n", "", fixedNow)
	require.Len(t, d.Data.Blocks.Philosophy.Services.Items, 3)
	assert.Equal(t, sampleServicesTitle, d.Data.Blocks.Philosophy.Services.Title)

	for i := 0; i < 9; i++ {
		d.Data.Blocks.Philosophy.Services.Items = append(d.Data.Blocks.Philosophy.Services.Items, ServiceItem{Title: "x"})
	}
	Normalize(d, fixedNow)
	assert.Len(t, d.Data.Blocks.Philosophy.Services.Items, ServicesMax)
}

func TestNormalizeHeroImages(t *testing.T) {
	d := New("n", "", fixedNow)
	assert.NotNil(t, d.Data.Blocks.Hero.HeroImageURLs)
	assert.Empty(t, d.Data.Blocks.Hero.HeroImageURLs)

	d.Data.Blocks.Hero.HeroImageURL = "https://a.example/0.jpg"
	d.Data.Blocks.Hero.HeroImageURLs = []string{" https://a.example/1.jpg ", "", "https://a.example/0.jpg",
		"https://a.example/2.jpg", "https://a.example/3.jpg", "https://a.example/4.jpg"}
	Normalize(d, fixedNow)

	want := []string{"https://a.example/0.jpg", "https://a.example/1.jpg", "https://a.example/2.jpg", "https://a.example/3.jpg"}
	assert.Equal(t, want, d.Data.Blocks.Hero.HeroImageURLs)
	assert.Equal(t, want[0], d.Data.Blocks.Hero.HeroImageURL)

	Normalize(d, fixedNow)
	assert.Equal(t, want, d.Data.Blocks.Hero.HeroImageURLs)
}

func TestNormalizeHeroImagesKeepsCommaInListedURL(t *testing.T) {
	d := New("n", "", fixedNow)
	d.Data.Blocks.Hero.HeroImageURLs = []string{"https://a.example/x,y.jpg"}
	Normalize(d, fixedNow)
	Normalize(d, fixedNow)
	assert.Equal(t, []string{"https://a.example/x,y.jpg"}, d.Data.Blocks.Hero.HeroImageURLs)
}

func TestNormalizeNewsCategoryDefault(t *testing.T) {
	d := New("n", "", fixedNow)
	d.Data.Blocks.News.Items = []NewsItem{{Title: "t"}}
	Normalize(d, fixedNow)
	assert.Equal(t, DefaultNewsCategory, d.Data.Blocks.News.Items[0].Category)
}

func TestPresetsCatalogLoaded(t *testing.T) {
	assert.Len(t, Presets.Industries, 4)
	hex, ok := Presets.ColorHex("red")
	assert.True(t, ok)
	assert.Equal(t, "#c62828", hex)
	assert.Equal(t, "orange", Presets.MigrateColor("deep-orange"))
	assert.NotEmpty(t, Presets.DefaultHeroImageURL())

	_, err := loadCatalog([]byte("industries: []"))
	assert.Error(t, err)
}
