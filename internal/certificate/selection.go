package certificate

import (
	"path"
	"strings"
)

// DefaultLeaderImage is the placeholder asset the form uses for "nobody
// picked". It is only recognised at the boundary; inside the engine a
// Selection carries the distinction.
const DefaultLeaderImage = "leader-default.png"

// Selection is either Selected(url) or NotSelected.
type Selection struct {
	url string
	ok  bool
}

func Selected(url string) Selection { return Selection{url: url, ok: true} }

var NotSelected = Selection{}

// SelectionFromRef converts a raw image reference coming from a form into a
// Selection. Empty references and the placeholder asset mean NotSelected.
func SelectionFromRef(ref string) Selection {
	ref = strings.TrimSpace(ref)
	if ref == "" || isDefaultLeaderImage(ref) {
		return NotSelected
	}
	return Selected(ref)
}

func (s Selection) URL() (string, bool) { return s.url, s.ok }

func (s Selection) IsSelected() bool { return s.ok }

func isDefaultLeaderImage(ref string) bool {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return path.Base(ref) == DefaultLeaderImage
}
