package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youruser/civiccert/internal/certificate"
	imagepkg "github.com/youruser/civiccert/internal/image"
	"github.com/youruser/civiccert/internal/leaders"
)

var errNoCatalog = errors.New("leader catalog not loaded")

type Options struct {
	Renderer *imagepkg.Renderer
	// Catalog may be nil when no leader CSVs were found.
	Catalog        *leaders.Catalog
	PublicBaseURL  string
	MaxUploadBytes int64
	Log            *zap.Logger
}

type Server struct {
	renderer       *imagepkg.Renderer
	catalog        *leaders.Catalog
	publicBaseURL  string
	maxUploadBytes int64
	log            *zap.Logger
	now            func() time.Time
	newID          func() string
}

func NewServer(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &Server{
		renderer:       opts.Renderer,
		catalog:        opts.Catalog,
		publicBaseURL:  opts.PublicBaseURL,
		maxUploadBytes: maxUpload,
		log:            log,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// qrHandler returns a PNG of a QR for the "text" query param.
func (s *Server) qrHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		text = s.publicBaseURL
	}
	size := 400
	if sizeStr := c.Query("size"); sizeStr != "" {
		if v, err := strconv.Atoi(sizeStr); err == nil {
			size = v
		}
	}
	if size < 64 || size > 2048 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("size must be between 64 and 2048, got %d", size)})
		return
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

func (s *Server) leadersHandler(c *gin.Context) {
	if s.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoCatalog.Error()})
		return
	}
	var opt leaders.FilterOptions
	for _, sc := range c.QueryArray("scope") {
		if sc = strings.TrimSpace(sc); sc != "" {
			opt.Scopes = append(opt.Scopes, leaders.Scope(strings.ToLower(sc)))
		}
	}
	if region := strings.TrimSpace(c.Query("region")); region != "" {
		opt.Regions = []string{region}
	}
	opt.FreeWords = c.Query("q")
	out := leaders.Filter(s.catalog.All(), opt)
	c.JSON(http.StatusOK, gin.H{"count": len(out), "leaders": out})
}

// certificateHandler renders one certificate from a multipart form and
// answers with the PNG.
func (s *Server) certificateHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(s.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, opts, err := s.certificateFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := s.renderer.Render(c.Request.Context(), data, opts)
	if !res.Ok() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Err.Error(), "id": data.ID})
		return
	}
	target, _ := data.QRTarget()
	c.Header("X-Certificate-Id", data.ID)
	c.Header("X-QR-Target", target)
	c.Data(http.StatusOK, "image/png", res.PNG)
}

func (s *Server) certificateFromForm(c *gin.Context) (certificate.Data, imagepkg.Options, error) {
	issueType, err := certificate.ParseIssueType(c.PostForm("issue_type"))
	if err != nil {
		return certificate.Data{}, imagepkg.Options{}, err
	}

	data := certificate.Data{
		ID:               strings.TrimSpace(c.PostForm("id")),
		IssueType:        issueType,
		Note:             strings.TrimSpace(c.PostForm("note")),
		LocationText:     c.PostForm("location_text"),
		LocationMapURL:   c.PostForm("location_map_url"),
		CapturedAt:       strings.TrimSpace(c.PostForm("captured_at")),
		Primary:          certificate.SelectionFromRef(c.PostForm("modi_image_url")),
		ReportURL:        strings.TrimSpace(c.PostForm("report_url")),
		FooterCreditName: c.PostForm("footer_credit_name"),
	}
	if data.ID == "" {
		data.ID = s.newID()
	}
	if data.CapturedAt == "" {
		data.CapturedAt = s.now().Format(time.RFC3339)
	}
	if data.ReportURL == "" {
		data.ReportURL = certificate.ReportURLFor(s.publicBaseURL, data.ID)
	}

	if lat, lng := c.PostForm("lat"), c.PostForm("lng"); lat != "" && lng != "" {
		coords, err := parseCoords(lat, lng)
		if err != nil {
			return certificate.Data{}, imagepkg.Options{}, err
		}
		data.Coords = coords
	}

	fh, err := c.FormFile("issue_photo")
	switch {
	case err == nil:
		data.IssueImage = certificate.Upload{Header: fh}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// drawn as "No issue photo provided"
	default:
		return certificate.Data{}, imagepkg.Options{}, fmt.Errorf("issue_photo: %w", err)
	}

	if ids := nonEmpty(c.PostFormArray("leader_ids")); len(ids) > 0 {
		if s.catalog == nil {
			return certificate.Data{}, imagepkg.Options{}, fmt.Errorf("leader_ids: %w", errNoCatalog)
		}
		urls, names, missing := s.catalog.Resolve(ids)
		if len(missing) > 0 {
			s.log.Warn("unknown leader ids", zap.Strings("ids", missing))
		}
		data.TopLeaderImageURLs = append(data.TopLeaderImageURLs, urls...)
		data.TopLeaderNames = append(data.TopLeaderNames, names...)
	}
	data.TopLeaderImageURLs = append(data.TopLeaderImageURLs, nonEmpty(c.PostFormArray("leader_image_urls"))...)
	data.TopLeaderNames = append(data.TopLeaderNames, c.PostFormArray("leader_names")...)

	var opts imagepkg.Options
	if scale := c.PostForm("scale"); scale != "" {
		v, err := strconv.ParseFloat(scale, 64)
		if err != nil || v <= 0 {
			return certificate.Data{}, imagepkg.Options{}, fmt.Errorf("invalid scale %q", scale)
		}
		opts.Scale = v
	}
	return data, opts, nil
}

func parseCoords(lat, lng string) (*certificate.Coords, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil || la < -90 || la > 90 {
		return nil, fmt.Errorf("invalid lat %q", lat)
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil || ln < -180 || ln > 180 {
		return nil, fmt.Errorf("invalid lng %q", lng)
	}
	return &certificate.Coords{Lat: la, Lng: ln}, nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
