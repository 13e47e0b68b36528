// Package report derives scan report file names from image references and
// renders the end-of-run summary.
package report

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// sanitizer rewrites the characters of an image reference that do not
// belong in a file name.
var sanitizer = strings.NewReplacer("/", "_", ":", "_")

// FileName derives a report file name from an image reference. Slashes
// and colons become underscores, so "registry:5000/app:1.2" yields
// "registry_5000_app_1.2" plus ext.
func FileName(image, ext string) string {
	return sanitizer.Replace(image) + ext
}

// Namer hands out report paths inside a directory. Distinct images whose
// sanitized names collide get a stable hash suffix so one report cannot
// silently overwrite another.
type Namer struct {
	dir   string
	ext   string
	taken map[string]string // sanitized file name to the image owning it
}

// NewNamer returns a Namer placing ext reports into dir.
func NewNamer(dir, ext string) *Namer {
	return &Namer{dir: dir, ext: ext, taken: make(map[string]string)}
}

// Path returns the report path for image. The same image always maps to
// the same path, so listing an image twice overwrites its own report.
func (n *Namer) Path(image string) string {
	name := FileName(image, n.ext)
	owner, ok := n.taken[name]
	switch {
	case !ok:
		n.taken[name] = image
	case owner != image:
		sum := sha256.Sum256([]byte(image))
		name = fmt.Sprintf("%s-%x%s", sanitizer.Replace(image), sum[:4], n.ext)
		slog.Warn("report name collision", "image", image, "collides_with", owner, "report", name)
	}
	return filepath.Join(n.dir, name)
}
