package publish

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vesaa/homebuilder/internal/logging"
	"github.com/vesaa/homebuilder/internal/render"
)

// SnapshotName is the document snapshot kept next to the published site.
const SnapshotName = "project.json"

// Result describes one publish.
type Result struct {
	ProjectDir string   `json:"project_dir"`
	SiteDir    string   `json:"site_dir"`
	Files      []string `json:"files"`
}

// ProjectDir returns <base>/projects/<id>.
func ProjectDir(baseDir, projectID string) string {
	return path.Join(baseDir, "projects", projectID)
}

// Publish writes files for projectID below baseDir: site files go to
// <base>/projects/<id>/site/ and the snapshot to <base>/projects/<id>/project.json.
// Files are written one at a time in the given order.
func Publish(ctx context.Context, w Writer, baseDir, projectID string, files []render.File) (*Result, error) {
	if projectID == "" || strings.ContainsAny(projectID, "/\\") || strings.Contains(projectID, "..") {
		return nil, fmt.Errorf("invalid project id %q", projectID)
	}
	if len(files) == 0 {
		return nil, errors.New("nothing to publish")
	}
	projectDir := ProjectDir(baseDir, projectID)
	siteDir := path.Join(projectDir, "site")

	res := &Result{ProjectDir: projectDir, SiteDir: siteDir}
	if err := w.MkdirAll(siteDir); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		dest := path.Join(siteDir, f.Name)
		if f.Name == SnapshotName {
			dest = path.Join(projectDir, SnapshotName)
		}
		if dir := path.Dir(dest); dir != siteDir && dir != projectDir {
			if err := w.MkdirAll(dir); err != nil {
				return res, err
			}
		}
		if err := w.WriteFile(dest, f.Body); err != nil {
			return res, err
		}
		res.Files = append(res.Files, dest)
	}

	logging.For("publish").WithFields(logrus.Fields{
		"project": projectID,
		"dir":     siteDir,
		"files":   len(res.Files),
	}).Info("site published")
	return res, nil
}

// Export writes files flat into w's root, for local previews of a site.
func Export(ctx context.Context, w Writer, files []render.File) ([]string, error) {
	var written []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		name := path.Clean("/" + f.Name)
		if err := w.MkdirAll(path.Dir(name)); err != nil {
			return written, err
		}
		if err := w.WriteFile(name, f.Body); err != nil {
			return written, err
		}
		written = append(written, name)
	}
	return written, nil
}
