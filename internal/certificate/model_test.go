package certificate

import (
	"errors"
	"io"
	"testing"
)

func TestParseIssueType(t *testing.T) {
	cases := map[string]IssueType{
		"pothole":            Pothole,
		"  GARBAGE ":         Garbage,
		"broken streetlight": BrokenStreetlight,
		"":                   Other,
	}
	for in, want := range cases {
		got, err := ParseIssueType(in)
		if err != nil || got != want {
			t.Fatalf("ParseIssueType(%q): expected %q, got %q (%v)", in, want, got, err)
		}
	}
	if _, err := ParseIssueType("volcano"); !errors.Is(err, ErrUnknownIssueType) {
		t.Fatalf("expected ErrUnknownIssueType, got %v", err)
	}
}

func TestLocationFallbacks(t *testing.T) {
	d := Data{LocationText: "  MG Road  ", Coords: &Coords{Lat: 1, Lng: 2}}
	if got := d.Location(); got != "MG Road" {
		t.Fatalf("expected text location, got %q", got)
	}
	d.LocationText = ""
	if got := d.Location(); got != "1.000000, 2.000000" {
		t.Fatalf("expected coordinates, got %q", got)
	}
	d.Coords = nil
	if got := d.Location(); got != NotProvided {
		t.Fatalf("expected %q, got %q", NotProvided, got)
	}
}

func TestQRTargetPrecedence(t *testing.T) {
	d := Data{ReportURL: "https://r.example/report/1"}
	if u, v := d.QRTarget(); u != d.ReportURL || v != QRReport {
		t.Fatalf("expected report target, got %q %v", u, v)
	}
	d.LocationMapURL = "   "
	if _, v := d.QRTarget(); v != QRReport {
		t.Fatalf("blank map URL must not win")
	}
	d.LocationMapURL = "https://maps.example/x"
	if u, v := d.QRTarget(); u != "https://maps.example/x" || v != QRMap {
		t.Fatalf("expected map target, got %q %v", u, v)
	}
	if QRMap.String() != "map" || QRReport.String() != "report" {
		t.Fatalf("unexpected variant names")
	}
}

func TestLeaderName(t *testing.T) {
	d := Data{TopLeaderImageURLs: []string{"a", "b", "c"}, TopLeaderNames: []string{" X ", "Y"}}
	if d.LeaderName(0) != "X" || d.LeaderName(1) != "Y" {
		t.Fatalf("expected trimmed names")
	}
	if d.LeaderName(2) != "" || d.LeaderName(-1) != "" {
		t.Fatalf("expected empty name for missing entries")
	}
}

func TestCapturedDisplay(t *testing.T) {
	d := Data{CapturedAt: "2025-08-15T14:05:00Z"}
	if got := d.CapturedDisplay(); got != "15 Aug 2025, 02:05 PM" {
		t.Fatalf("unexpected display %q", got)
	}
	d.CapturedAt = "yesterday"
	if got := d.CapturedDisplay(); got != "yesterday" {
		t.Fatalf("expected verbatim value, got %q", got)
	}
	d.CapturedAt = ""
	if got := d.CapturedDisplay(); got != NotProvided {
		t.Fatalf("expected %q, got %q", NotProvided, got)
	}
}

func TestReportURLFor(t *testing.T) {
	if got := ReportURLFor("https://r.example/", "abc"); got != "https://r.example/report/abc" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestSelectionFromRef(t *testing.T) {
	for _, ref := range []string{"", "  ", "/images/leader-default.png", "https://cdn.example/leader-default.png?v=2"} {
		if SelectionFromRef(ref).IsSelected() {
			t.Fatalf("expected %q to mean not selected", ref)
		}
	}
	s := SelectionFromRef("/images/pm.png")
	if u, ok := s.URL(); !ok || u != "/images/pm.png" {
		t.Fatalf("expected selection of pm.png, got %q %v", u, ok)
	}
	if NotSelected.IsSelected() {
		t.Fatalf("NotSelected must not be selected")
	}
}

func TestTextsMerge(t *testing.T) {
	custom := Texts{Title: "Civic Hero"}.Merge(DefaultTexts())
	if custom.Title != "Civic Hero" {
		t.Fatalf("expected override kept, got %q", custom.Title)
	}
	if custom.Slogan != DefaultTexts().Slogan {
		t.Fatalf("expected missing fields filled from defaults")
	}
	if lines := custom.ScanCaption(QRMap); len(lines) != 2 {
		t.Fatalf("expected two caption lines, got %q", lines)
	}
}

func TestBytesBlob(t *testing.T) {
	rc, err := Bytes("abc").Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "abc" {
		t.Fatalf("unexpected content %q", b)
	}
}

func TestUploadWithoutHeader(t *testing.T) {
	if _, err := (Upload{}).Open(); err == nil {
		t.Fatalf("expected an error for an upload without a file header")
	}
}
