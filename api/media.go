package api

import (
	"net/url"
	"path"
	"strings"
)

var (
	ImageExtensions = []string{"png", "jpg", "jpeg", "webp"}
	VideoExtensions = []string{"mp4", "webm"}
)

// MediaReference is a resolved absolute link to one downloadable file.
type MediaReference struct {
	URL       string
	Filename  string
	Extension string
}

// NewMediaReference infers the filename and extension from the last path segment of the link.
func NewMediaReference(link string) MediaReference {
	name := link
	if u, err := url.Parse(link); err == nil {
		name = u.Path
	}
	name = path.Base(name)

	return MediaReference{
		URL:       link,
		Filename:  name,
		Extension: strings.TrimPrefix(path.Ext(name), "."),
	}
}

// hasExtension reports whether href ends with ".<ext>" for any of the extensions.
// The match is case-sensitive.
func hasExtension(href string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(href, "."+ext) {
			return true
		}
	}
	return false
}
