package report

import (
	"path"
	"strconv"
	"strings"
)

// pageNames maps source paths to unique flat page names under files/.
type pageNames struct {
	used map[string]bool
}

func newPageNames() *pageNames {
	return &pageNames{used: make(map[string]bool)}
}

// assign returns the page name for a source path. Files are assigned in
// sorted order, so collisions resolve the same way on every run.
func (n *pageNames) assign(source string) string {
	base := SanitizePath(source)
	name := base + ".html"
	for i := 2; n.used[name]; i++ {
		name = base + "-" + strconv.Itoa(i) + ".html"
	}
	n.used[name] = true
	return name
}

// SanitizePath flattens a source path into a single safe file name.
// "src/app/main.js" becomes "src_app_main.js".
func SanitizePath(source string) string {
	p := strings.ReplaceAll(source, "\\", "/")
	if i := strings.Index(p, ":"); i == 1 {
		// Windows drive letter.
		p = p[2:]
	}
	p = path.Clean("/" + p)
	p = strings.TrimPrefix(p, "/")

	var b strings.Builder
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if name == "" {
		return "file"
	}
	return name
}
