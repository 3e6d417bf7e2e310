package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/youruser/civiccert/internal/api"
	"github.com/youruser/civiccert/internal/config"
	imagepkg "github.com/youruser/civiccert/internal/image"
	"github.com/youruser/civiccert/internal/leaders"
	"github.com/youruser/civiccert/internal/metrics"
	"github.com/youruser/civiccert/internal/tracing"
	"github.com/youruser/civiccert/internal/util"
)

func newLogger() (*zap.Logger, error) {
	if os.Getenv("CERT_DEV") == "1" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	log, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.NewLoader(config.LoadOptions{
		ConfigPath:    os.Getenv("CERT_CONFIG"),
		OverridesPath: os.Getenv("CERT_CONFIG_OVERRIDES"),
	}).Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	cfg = cfg.ApplyEnv(os.Getenv)

	shutdownTracing, err := tracing.Setup(tracing.Config{
		Enabled:          os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "",
		ServiceName:      "civiccert",
		Environment:      os.Getenv("CERT_ENV"),
		ExporterEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SamplingRatio:    tracing.SamplingRatioFromEnv(os.Getenv),
	}, log)
	if err != nil {
		log.Fatal("failed to set up tracing", zap.Error(err))
	}

	style, err := cfg.ImageStyle()
	if err != nil {
		log.Fatal("invalid style", zap.Error(err))
	}
	fallbacks, absent := cfg.FallbackFonts()
	for _, p := range absent {
		log.Warn("fallback font not found", zap.String("path", p))
	}
	fonts, err := imagepkg.LoadFontSet(cfg.Fonts.Medium, cfg.Fonts.Bold, fallbacks...)
	if err != nil {
		log.Fatal("failed to load fonts", zap.Error(err))
	}
	if missing := fonts.Missing(strings.Join(cfg.Texts.Strings(), " ")); len(missing) > 0 {
		log.Warn("text catalog has glyphs no configured font can draw",
			zap.String("runes", string(missing)),
			zap.Strings("fallbacks", cfg.Fonts.Fallbacks),
		)
	}

	// Load leaders at startup (best-effort)
	catalog, err := leaders.LoadFromDataDir(cfg.Leaders.DataDir)
	if err != nil {
		log.Warn("leader catalog unavailable", zap.String("dir", cfg.Leaders.DataDir), zap.Error(err))
	} else {
		log.Info("leader catalog loaded", zap.Int("leaders", catalog.Len()))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsCfg := metrics.Config{ServiceName: "civiccert", Environment: os.Getenv("CERT_ENV")}

	resolver := imagepkg.NewResolver(imagepkg.ResolverOptions{
		AssetsDir: cfg.Assets.Dir,
		Client:    util.NewPublicClient(cfg.Assets.FetchTimeout, cfg.Assets.AllowedHosts),
		MaxBytes:  cfg.Assets.MaxBytes,
	}, log.Named("assets"))
	renderer := imagepkg.NewRenderer(style, fonts, resolver,
		imagepkg.WithTexts(cfg.Texts),
		imagepkg.WithLogger(log.Named("render")),
		imagepkg.WithObserver(metrics.NewRenderMetrics(reg, metricsCfg)),
	)

	if os.Getenv("CERT_DEV") != "1" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Static("/images", cfg.Assets.Dir+"/images")
	api.RegisterRoutes(r, api.NewServer(api.Options{
		Renderer:       renderer,
		Catalog:        catalog,
		PublicBaseURL:  cfg.Server.PublicBaseURL,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Log:            log.Named("api"),
	}), metrics.NewHTTPMetrics(reg, metricsCfg), reg)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Error("tracing shutdown", zap.Error(err))
	}
}
