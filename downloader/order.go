package downloader

import (
	"path"
	"slices"
	"strings"

	"github.com/handsomefox/threaddl/api"
)

// postOrderKeyWidth is wide enough for any millisecond timestamp plus a random numeric suffix.
const postOrderKeyWidth = 30

// PostOrderKey derives a sort key from the link's filename: the digits of the
// name without its extension, left-padded with zeros.
//
// Imageboards name uploads after the posting time, sometimes with extra noise around it,
// so comparing the padded digits as strings yields posting order.
func PostOrderKey(link string) string {
	name := link[strings.LastIndexByte(link, '/')+1:]
	stem := strings.TrimSuffix(name, path.Ext(name))

	var b strings.Builder
	for _, r := range stem {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) >= postOrderKeyWidth {
		return digits
	}
	return strings.Repeat("0", postOrderKeyWidth-len(digits)) + digits
}

// SortByPostOrder returns the references sorted by PostOrderKey.
// The sort is stable and the input is left untouched.
func SortByPostOrder(refs []api.MediaReference) []api.MediaReference {
	sorted := slices.Clone(refs)
	slices.SortStableFunc(sorted, func(a, b api.MediaReference) int {
		return strings.Compare(PostOrderKey(a.URL), PostOrderKey(b.URL))
	})
	return sorted
}
