package main

import (
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/youruser/civiccert/internal/certificate"
	"github.com/youruser/civiccert/internal/config"
)

func TestRunWritesPNGAndManifest(t *testing.T) {
	dir := t.TempDir()
	photo := imaging.New(400, 300, color.NRGBA{R: 10, G: 120, B: 60, A: 255})
	if err := imaging.Save(photo, filepath.Join(dir, "photo.jpg")); err != nil {
		t.Fatal(err)
	}
	doc := `
id: cert-42
issueType: waterlogging
note: Knee-deep water after rain
coords: {lat: 12.9716, lng: 77.5946}
capturedAt: "2025-08-15T10:30:00Z"
issuePhoto: photo.jpg
leaders:
  - image: /images/missing.png
    name: Someone
footerCreditName: Asha
`
	in := filepath.Join(dir, "certificate.yaml")
	if err := os.WriteFile(in, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Assets.Dir = dir
	cfg.Server.PublicBaseURL = "https://civic.example"

	out := filepath.Join(dir, "out", "cert.png")
	manifest := filepath.Join(dir, "out", "cert.json")
	if err := run(context.Background(), cfg, in, out, manifest, zap.NewNop()); err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 900 || b.Dy() != 1273 {
		t.Fatalf("expected 900x1273, got %v", b)
	}

	raw, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatal(err)
	}
	var m struct {
		QRTarget string
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if m.QRTarget != "https://civic.example/report/cert-42" {
		t.Fatalf("expected derived report URL, got %q", m.QRTarget)
	}
}

func TestToData(t *testing.T) {
	doc := input{
		IssueType:    "",
		IssuePhoto:   "shots/a.jpg",
		PrimaryImage: "leader-default.png",
		Leaders:      []leaderInput{{Image: "a", Name: "A"}, {Image: "b"}},
	}
	data, err := doc.toData("/base", "https://civic.example")
	if err != nil {
		t.Fatal(err)
	}
	if data.IssueType != certificate.Other {
		t.Fatalf("expected Other for empty issue type, got %q", data.IssueType)
	}
	if data.IssueImage != certificate.File(filepath.Join("/base", "shots/a.jpg")) {
		t.Fatalf("unexpected photo path %v", data.IssueImage)
	}
	if data.Primary.IsSelected() {
		t.Fatalf("default leader image must mean not selected")
	}
	if data.ID == "" || data.ReportURL != certificate.ReportURLFor("https://civic.example", data.ID) {
		t.Fatalf("expected generated id and report url, got %q %q", data.ID, data.ReportURL)
	}
	if len(data.TopLeaderImageURLs) != 2 || data.LeaderName(1) != "" {
		t.Fatalf("unexpected leaders %v %v", data.TopLeaderImageURLs, data.TopLeaderNames)
	}

	if _, err := (input{IssueType: "meteor"}).toData("", ""); err == nil {
		t.Fatalf("expected unknown issue type error")
	}
}
