package resource

import (
	"github.com/elnormous/contenttype"
)

// mediaType parses a Content-Type value, ignoring parameters. It returns
// "" for empty or malformed input.
func mediaType(contentType string) string {
	mt := contenttype.NewMediaType(contentType)
	if mt.Type == "" || mt.Subtype == "" {
		return ""
	}
	return mt.Type + "/" + mt.Subtype
}

// isSupported reports whether contentType names exactly one of the accepted
// media types. Parameters such as charset are ignored; wildcards are not
// expanded on either side.
func isSupported(contentType string, accepted []string) bool {
	got := contenttype.NewMediaType(contentType)
	if got.Type == "" || got.Subtype == "" {
		return false
	}
	for _, a := range accepted {
		want := contenttype.NewMediaType(a)
		if got.Type == want.Type && got.Subtype == want.Subtype {
			return true
		}
	}
	return false
}
