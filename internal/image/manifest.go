package imagepkg

import "github.com/youruser/civiccert/internal/certificate"

type ElementKind string

const (
	KindBorder        ElementKind = "border"
	KindHeader        ElementKind = "header"
	KindSeal          ElementKind = "seal"
	KindHeaderTitle   ElementKind = "header_title"
	KindTitle         ElementKind = "title"
	KindLeader        ElementKind = "leader"
	KindLeaderCaption ElementKind = "leader_caption"
	KindMeta          ElementKind = "meta"
	KindIssue         ElementKind = "issue"
	KindNote          ElementKind = "note"
	KindSlogan        ElementKind = "slogan"
	KindIssuePhoto    ElementKind = "issue_photo"
	KindDivider       ElementKind = "divider"
	KindPrimary       ElementKind = "primary"
	KindQR            ElementKind = "qr"
	KindQRCaption     ElementKind = "qr_caption"
	KindQRFallback    ElementKind = "qr_fallback"
	KindDisclaimer    ElementKind = "qr_disclaimer"
	KindCredit        ElementKind = "credit"
	KindFooter        ElementKind = "footer"
	KindLegal         ElementKind = "legal"
)

// Element is one thing drawn on the canvas. Fallback marks placeholders
// drawn in place of an asset that failed to load.
type Element struct {
	Kind     ElementKind
	Box      Box
	Text     string
	Fallback bool
}

// Manifest lists what a pass drew, in drawing order.
type Manifest struct {
	Elements  []Element
	QRTarget  string
	QRVariant certificate.QRVariant
	QREncoded bool
}

func (m *Manifest) add(e Element) { m.Elements = append(m.Elements, e) }

// Find returns the elements of kind in drawing order.
func (m *Manifest) Find(kind ElementKind) []Element {
	var out []Element
	for _, e := range m.Elements {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (m *Manifest) Has(kind ElementKind) bool { return len(m.Find(kind)) > 0 }

// Fallbacks returns every placeholder element.
func (m *Manifest) Fallbacks() []Element {
	var out []Element
	for _, e := range m.Elements {
		if e.Fallback {
			out = append(out, e)
		}
	}
	return out
}
