package certificate

import "strings"

// Texts are the localized strings drawn on a certificate. The engine treats
// them as opaque values.
type Texts struct {
	HeaderTitle    string `yaml:"headerTitle"`
	HeaderSubtitle string `yaml:"headerSubtitle"`
	Title          string `yaml:"title"`
	Subtitle       string `yaml:"subtitle"`
	DateTimeLabel  string `yaml:"dateTimeLabel"`
	LocationLabel  string `yaml:"locationLabel"`
	IssueLabel     string `yaml:"issueLabel"`
	NoteLabel      string `yaml:"noteLabel"`
	Slogan         string `yaml:"slogan"`
	ImpactText     string `yaml:"impactText"`
	ScanReportText string `yaml:"scanReportText"`
	ScanMapText    string `yaml:"scanMapText"`
	LinkLabel      string `yaml:"linkLabel"`
	QRDisclaimer   string `yaml:"qrDisclaimer"`
	CreditLabel    string `yaml:"creditLabel"`
	FooterText     string `yaml:"footerText"`
	LegalLine1     string `yaml:"legalLine1"`
	LegalLine2     string `yaml:"legalLine2"`
}

// DefaultTexts is the English + Hindi catalog entry.
func DefaultTexts() Texts {
	return Texts{
		HeaderTitle:    "People of India",
		HeaderSubtitle: "भारत के लोग",
		Title:          "Civic Issue Certificate",
		Subtitle:       "नागरिक समस्या प्रमाणपत्र",
		DateTimeLabel:  "Date & Time / दिनांक",
		LocationLabel:  "Location / स्थान",
		IssueLabel:     "Issue",
		NoteLabel:      "Note",
		Slogan:         "Your Voice Matters / आपकी आवाज़ महत्वपूर्ण है",
		ImpactText:     "Together for Better Communities / बेहतर समुदाय के लिए एकजुट",
		ScanReportText: "Scan to view report\nरिपोर्ट देखने हेतु स्कैन करें",
		ScanMapText:    "Scan to open location\nस्थान देखने हेतु स्कैन करें",
		LinkLabel:      "Link:",
		QRDisclaimer:   "Demo only - QR/URL not live",
		CreditLabel:    "Credit",
		FooterText:     "This certificate documents a civic issue reported by a citizen.",
		LegalLine1:     "Not an official government document. Generated by a citizen for civic awareness.",
		LegalLine2:     "Leader images and names are shown for illustration only and imply no endorsement.",
	}
}

// Merge returns t with every empty field taken from fallback.
func (t Texts) Merge(fallback Texts) Texts {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	return Texts{
		HeaderTitle:    pick(t.HeaderTitle, fallback.HeaderTitle),
		HeaderSubtitle: pick(t.HeaderSubtitle, fallback.HeaderSubtitle),
		Title:          pick(t.Title, fallback.Title),
		Subtitle:       pick(t.Subtitle, fallback.Subtitle),
		DateTimeLabel:  pick(t.DateTimeLabel, fallback.DateTimeLabel),
		LocationLabel:  pick(t.LocationLabel, fallback.LocationLabel),
		IssueLabel:     pick(t.IssueLabel, fallback.IssueLabel),
		NoteLabel:      pick(t.NoteLabel, fallback.NoteLabel),
		Slogan:         pick(t.Slogan, fallback.Slogan),
		ImpactText:     pick(t.ImpactText, fallback.ImpactText),
		ScanReportText: pick(t.ScanReportText, fallback.ScanReportText),
		ScanMapText:    pick(t.ScanMapText, fallback.ScanMapText),
		LinkLabel:      pick(t.LinkLabel, fallback.LinkLabel),
		QRDisclaimer:   pick(t.QRDisclaimer, fallback.QRDisclaimer),
		CreditLabel:    pick(t.CreditLabel, fallback.CreditLabel),
		FooterText:     pick(t.FooterText, fallback.FooterText),
		LegalLine1:     pick(t.LegalLine1, fallback.LegalLine1),
		LegalLine2:     pick(t.LegalLine2, fallback.LegalLine2),
	}
}

// ScanCaption returns the caption lines for the QR variant.
func (t Texts) ScanCaption(v QRVariant) []string {
	s := t.ScanReportText
	if v == QRMap {
		s = t.ScanMapText
	}
	return strings.Split(s, "\n")
}

// Strings returns every catalog entry in declaration order.
func (t Texts) Strings() []string {
	return []string{
		t.HeaderTitle, t.HeaderSubtitle, t.Title, t.Subtitle,
		t.DateTimeLabel, t.LocationLabel, t.IssueLabel, t.NoteLabel,
		t.Slogan, t.ImpactText, t.ScanReportText, t.ScanMapText,
		t.LinkLabel, t.QRDisclaimer, t.CreditLabel, t.FooterText,
		t.LegalLine1, t.LegalLine2,
	}
}
