package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/youruser/civiccert/internal/certificate"
	"github.com/youruser/civiccert/internal/config"
	imagepkg "github.com/youruser/civiccert/internal/image"
	"github.com/youruser/civiccert/internal/util"
)

// input is the YAML description of one certificate.
type input struct {
	ID               string              `yaml:"id"`
	IssueType        string              `yaml:"issueType"`
	Note             string              `yaml:"note"`
	LocationText     string              `yaml:"locationText"`
	Coords           *certificate.Coords `yaml:"coords"`
	LocationMapURL   string              `yaml:"locationMapUrl"`
	CapturedAt       string              `yaml:"capturedAt"`
	IssuePhoto       string              `yaml:"issuePhoto"`
	Leaders          []leaderInput       `yaml:"leaders"`
	PrimaryImage     string              `yaml:"primaryImage"`
	ReportURL        string              `yaml:"reportUrl"`
	FooterCreditName string              `yaml:"footerCreditName"`
	Scale            float64             `yaml:"scale"`
}

type leaderInput struct {
	Image string `yaml:"image"`
	Name  string `yaml:"name"`
}

func main() {
	in := flag.String("in", "certificate.yaml", "certificate YAML path")
	out := flag.String("out", "output/certificate.png", "PNG output path")
	cfgPath := flag.String("config", os.Getenv("CERT_CONFIG"), "config YAML path")
	manifest := flag.String("manifest", "", "write the drawn element list as JSON to this path")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.NewLoader(config.LoadOptions{ConfigPath: *cfgPath}).Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	if err := run(context.Background(), cfg, *in, *out, *manifest, log); err != nil {
		log.Fatal("certificate generation failed", zap.Error(err))
	}
	fmt.Printf("wrote %s\n", *out)
}

// run renders the certificate described in inputPath and writes the PNG.
func run(ctx context.Context, cfg config.Config, inputPath, outputPath, manifestPath string, log *zap.Logger) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}
	var doc input
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", inputPath, err)
	}
	data, err := doc.toData(filepath.Dir(inputPath), cfg.Server.PublicBaseURL)
	if err != nil {
		return err
	}

	style, err := cfg.ImageStyle()
	if err != nil {
		return err
	}
	fallbacks, absent := cfg.FallbackFonts()
	for _, p := range absent {
		log.Warn("fallback font not found", zap.String("path", p))
	}
	fonts, err := imagepkg.LoadFontSet(cfg.Fonts.Medium, cfg.Fonts.Bold, fallbacks...)
	if err != nil {
		return err
	}
	resolver := imagepkg.NewResolver(imagepkg.ResolverOptions{
		AssetsDir: cfg.Assets.Dir,
		Client:    util.NewPublicClient(cfg.Assets.FetchTimeout, cfg.Assets.AllowedHosts),
		MaxBytes:  cfg.Assets.MaxBytes,
	}, log)
	r := imagepkg.NewRenderer(style, fonts, resolver,
		imagepkg.WithTexts(cfg.Texts),
		imagepkg.WithLogger(log),
	)

	res := r.Render(ctx, data, imagepkg.Options{Scale: doc.Scale})
	if !res.Ok() {
		return res.Err
	}
	if err := util.WriteFileAtomic(outputPath, res.PNG); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	if manifestPath != "" {
		b, err := json.MarshalIndent(res.Manifest, "", "  ")
		if err != nil {
			return err
		}
		if err := util.WriteFileAtomic(manifestPath, b); err != nil {
			return fmt.Errorf("write %s: %w", manifestPath, err)
		}
	}
	return nil
}

// toData converts the document, resolving a relative issue photo path
// against baseDir.
func (doc input) toData(baseDir, publicBaseURL string) (certificate.Data, error) {
	issueType, err := certificate.ParseIssueType(doc.IssueType)
	if err != nil {
		return certificate.Data{}, err
	}
	data := certificate.Data{
		ID:               doc.ID,
		IssueType:        issueType,
		Note:             doc.Note,
		LocationText:     doc.LocationText,
		Coords:           doc.Coords,
		LocationMapURL:   doc.LocationMapURL,
		CapturedAt:       doc.CapturedAt,
		Primary:          certificate.SelectionFromRef(doc.PrimaryImage),
		ReportURL:        doc.ReportURL,
		FooterCreditName: doc.FooterCreditName,
	}
	if data.ID == "" {
		data.ID = uuid.NewString()
	}
	if data.ReportURL == "" {
		data.ReportURL = certificate.ReportURLFor(publicBaseURL, data.ID)
	}
	if doc.IssuePhoto != "" {
		p := doc.IssuePhoto
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		data.IssueImage = certificate.File(p)
	}
	for _, l := range doc.Leaders {
		data.TopLeaderImageURLs = append(data.TopLeaderImageURLs, l.Image)
		data.TopLeaderNames = append(data.TopLeaderNames, l.Name)
	}
	return data, nil
}
