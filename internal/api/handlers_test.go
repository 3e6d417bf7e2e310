package api

import (
	"bytes"
	"encoding/json"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	imagepkg "github.com/youruser/civiccert/internal/image"
	"github.com/youruser/civiccert/internal/leaders"
	"github.com/youruser/civiccert/internal/metrics"
)

func newTestRouter(t *testing.T, catalog *leaders.Catalog) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	resolver := imagepkg.NewResolver(imagepkg.ResolverOptions{AssetsDir: t.TempDir()}, zap.NewNop())
	renderer := imagepkg.NewRenderer(imagepkg.DefaultStyle(), nil, resolver)
	s := NewServer(Options{
		Renderer:      renderer,
		Catalog:       catalog,
		PublicBaseURL: "https://civic.example",
	})
	s.newID = func() string { return "fixed-id" }
	s.now = func() time.Time { return time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC) }

	reg := prometheus.NewRegistry()
	r := gin.New()
	RegisterRoutes(r, s, metrics.NewHTTPMetrics(reg, metrics.Config{}), reg)
	return r
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, fields map[string][]string, file *formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range fields {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.field, file.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(file.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/certificate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jpegPhoto(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(320, 240, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestQRHandler(t *testing.T) {
	r := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/qr?text=hello&size=128", nil))
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if _, err := png.Decode(w.Body); err != nil {
		t.Fatalf("body is not a png: %v", err)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/qr?size=10", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for tiny size, got %d", w.Code)
	}
}

func TestLeadersHandler(t *testing.T) {
	catalog := leaders.NewCatalog([]leaders.Leader{
		{ID: "ka", Name: "Karnataka CM", Scope: leaders.ScopeState, Region: "Karnataka"},
		{ID: "dl", Name: "Delhi CM", Scope: leaders.ScopeUT, Region: "Delhi"},
	})
	r := newTestRouter(t, catalog)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leaders?scope=ut", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Count   int              `json:"count"`
		Leaders []leaders.Leader `json:"leaders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || body.Leaders[0].ID != "dl" {
		t.Fatalf("expected only dl, got %+v", body)
	}

	noCatalog := newTestRouter(t, nil)
	w = httptest.NewRecorder()
	noCatalog.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leaders", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a catalog, got %d", w.Code)
	}
}

func TestCertificateHandler(t *testing.T) {
	r := newTestRouter(t, nil)
	req := multipartRequest(t, map[string][]string{
		"issue_type":    {"pothole"},
		"note":          {"Deep pothole"},
		"location_text": {"MG Road"},
		"leader_names":  {"X"},
	}, &formFile{field: "issue_photo", name: "photo.jpg", data: jpegPhoto(t)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Certificate-Id"); got != "fixed-id" {
		t.Fatalf("expected generated id, got %q", got)
	}
	if got := w.Header().Get("X-QR-Target"); got != "https://civic.example/report/fixed-id" {
		t.Fatalf("expected derived report URL, got %q", got)
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("body is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 900 || b.Dy() != 1273 {
		t.Fatalf("expected 900x1273, got %v", b)
	}
}

func TestCertificateHandlerMapTarget(t *testing.T) {
	r := newTestRouter(t, nil)
	req := multipartRequest(t, map[string][]string{
		"issue_type":       {"Garbage"},
		"location_map_url": {"https://maps.example/x"},
		"lat":              {"12.97"},
		"lng":              {"77.59"},
	}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-QR-Target"); got != "https://maps.example/x" {
		t.Fatalf("expected map target, got %q", got)
	}
}

func TestCertificateHandlerBadInput(t *testing.T) {
	r := newTestRouter(t, nil)
	cases := map[string]map[string][]string{
		"unknown issue":  {"issue_type": {"volcano"}},
		"bad lat":        {"issue_type": {"Other"}, "lat": {"north"}, "lng": {"1"}},
		"bad scale":      {"issue_type": {"Other"}, "scale": {"-1"}},
		"ids no catalog": {"issue_type": {"Other"}, "leader_ids": {"ka"}},
	}
	for name, fields := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, multipartRequest(t, fields, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, w.Code)
		}
	}
}

func TestCertificateFromFormResolvesLeaderIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	catalog := leaders.NewCatalog([]leaders.Leader{
		{ID: "ka", Name: "Karnataka CM", ImageURL: "/images/ka.png"},
	})
	s := NewServer(Options{Catalog: catalog, PublicBaseURL: "https://civic.example"})
	req := multipartRequest(t, map[string][]string{
		"issue_type":        {"Waterlogging"},
		"leader_ids":        {"ka", "zz"},
		"leader_image_urls": {"https://cdn.example/extra.png"},
		"leader_names":      {"Extra"},
		"modi_image_url":    {"/images/leader-default.png"},
	}, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	data, _, err := s.certificateFromForm(c)
	if err != nil {
		t.Fatalf("certificateFromForm: %v", err)
	}
	if len(data.TopLeaderImageURLs) != 2 || data.TopLeaderImageURLs[0] != "/images/ka.png" {
		t.Fatalf("unexpected urls %v", data.TopLeaderImageURLs)
	}
	if len(data.TopLeaderNames) != 2 || data.TopLeaderNames[0] != "Karnataka CM" || data.TopLeaderNames[1] != "Extra" {
		t.Fatalf("unexpected names %v", data.TopLeaderNames)
	}
	if data.Primary.IsSelected() {
		t.Fatalf("default leader image must mean not selected")
	}
	if data.IssueImage != nil {
		t.Fatalf("expected no issue photo")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_server_duration_seconds") {
		t.Fatalf("expected prometheus exposition, got %d", w.Code)
	}
}
