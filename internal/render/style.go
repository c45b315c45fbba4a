package render

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/vesaa/homebuilder/internal/project"
)

// StylesheetName is the file the published page links to.
const StylesheetName = "style.css"

const (
	fallbackAccent = "#1e88e5"
	softMix        = 0.86
	softerMix      = 0.92
)

var stylesheet = mustAsset("assets/style.css")

func mustAsset(name string) string {
	b, err := assets.ReadFile(name)
	if err != nil {
		panic("render: " + err.Error())
	}
	return string(b)
}

// Stylesheet returns the site CSS shared by every render mode.
func Stylesheet() string { return stylesheet }

// themeVars returns the CSS custom properties for a color preset.
func themeVars(color string) template.CSS {
	accent, ok := project.Presets.ColorHex(project.Presets.MigrateColor(color))
	if !ok {
		accent = fallbackAccent
	}
	return template.CSS(fmt.Sprintf(
		"--hb-accent:%s;--hb-accent-soft:%s;--hb-accent-softer:%s",
		accent, blendHex(accent, "#ffffff", softMix), blendHex(accent, "#ffffff", softerMix),
	))
}

// blendHex mixes a toward b by t (0 keeps a, 1 yields b).
// Malformed input returns a unchanged.
func blendHex(a, b string, t float64) string {
	ar, ag, ab, ok1 := parseHex(a)
	br, bg, bb, ok2 := parseHex(b)
	if !ok1 || !ok2 {
		return a
	}
	mix := func(x, y int) int {
		v := float64(x) + (float64(y)-float64(x))*t
		return int(v + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", mix(ar, br), mix(ag, bg), mix(ab, bb))
}

func parseHex(s string) (r, g, b int, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
