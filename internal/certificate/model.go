package certificate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IssueType is one of the fixed categories a citizen can report.
type IssueType string

const (
	Pothole           IssueType = "Pothole"
	Garbage           IssueType = "Garbage"
	BrokenStreetlight IssueType = "Broken Streetlight"
	IllegalDumping    IssueType = "Illegal Dumping"
	Waterlogging      IssueType = "Waterlogging"
	Other             IssueType = "Other"
)

var ErrUnknownIssueType = errors.New("unknown issue type")

// IssueTypes lists the closed set in display order.
func IssueTypes() []IssueType {
	return []IssueType{Pothole, Garbage, BrokenStreetlight, IllegalDumping, Waterlogging, Other}
}

// ParseIssueType matches s case-insensitively against the closed set.
// An empty string maps to Other.
func ParseIssueType(s string) (IssueType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Other, nil
	}
	for _, t := range IssueTypes() {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIssueType, s)
}

type Coords struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// NotProvided is drawn when neither a location string nor coordinates exist.
const NotProvided = "Not provided"

// Data is the immutable input of one render pass.
type Data struct {
	ID                 string
	IssueType          IssueType
	Note               string
	LocationText       string
	Coords             *Coords
	LocationMapURL     string
	CapturedAt         string // ISO-8601
	IssueImage         Blob
	TopLeaderImageURLs []string
	TopLeaderNames     []string
	Primary            Selection
	ReportURL          string
	FooterCreditName   string
}

// Location returns the display location, falling back to coordinates and
// then to NotProvided.
func (d Data) Location() string {
	if s := strings.TrimSpace(d.LocationText); s != "" {
		return s
	}
	if d.Coords != nil && (d.Coords.Lat != 0 || d.Coords.Lng != 0) {
		return fmt.Sprintf("%.6f, %.6f", d.Coords.Lat, d.Coords.Lng)
	}
	return NotProvided
}

// LeaderName returns the caption paired with the i-th leader photo. Names
// missing from a short TopLeaderNames slice are returned empty.
func (d Data) LeaderName(i int) string {
	if i < 0 || i >= len(d.TopLeaderNames) {
		return ""
	}
	return strings.TrimSpace(d.TopLeaderNames[i])
}

// QRVariant tells which kind of link the certificate QR code points at.
type QRVariant int

const (
	QRReport QRVariant = iota
	QRMap
)

func (v QRVariant) String() string {
	if v == QRMap {
		return "map"
	}
	return "report"
}

// QRTarget applies the target precedence: a non-empty map URL wins over the
// report URL.
func (d Data) QRTarget() (string, QRVariant) {
	if u := strings.TrimSpace(d.LocationMapURL); u != "" {
		return u, QRMap
	}
	return strings.TrimSpace(d.ReportURL), QRReport
}

// HasCredit reports whether the footer credit line is drawn.
func (d Data) HasCredit() bool {
	return strings.TrimSpace(d.FooterCreditName) != ""
}

const displayTimeLayout = "02 Jan 2006, 03:04 PM"

// CapturedDisplay formats CapturedAt for the meta block. Values that do not
// parse as RFC 3339 are returned verbatim.
func (d Data) CapturedDisplay() string {
	raw := strings.TrimSpace(d.CapturedAt)
	if raw == "" {
		return NotProvided
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Format(displayTimeLayout)
}

// ReportURLFor builds the public report link for an ID.
func ReportURLFor(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/report/" + id
}
