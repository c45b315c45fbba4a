package render

import (
	"fmt"

	"github.com/vesaa/homebuilder/internal/project"
)

// File is one file of a published site, relative to the site root.
type File struct {
	Name string
	Body []byte
}

// Site renders the full publish file set for d: index.html linking
// style.css, the stylesheet itself and the project snapshot.
func Site(d *project.Document) ([]File, error) {
	page, err := Render(d, Options{Mode: ModeSite, StylesheetHref: StylesheetName})
	if err != nil {
		return nil, err
	}
	snapshot, err := project.Encode(d)
	if err != nil {
		return nil, fmt.Errorf("site snapshot: %w", err)
	}
	return []File{
		{Name: "index.html", Body: page.HTML},
		{Name: StylesheetName, Body: []byte(Stylesheet())},
		{Name: "project.json", Body: snapshot},
	}, nil
}
