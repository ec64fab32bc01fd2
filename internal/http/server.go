package http

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/internal/cache"
	"finsight/internal/core"
	"finsight/internal/insights"
	"finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/middleware/security"
	"finsight/internal/middleware/trace"
	"finsight/internal/services"
	"finsight/internal/session"
	appweb "finsight/web"
)

const (
	defaultCookieName     = "finsight_session"
	defaultSessionTTL     = 24 * time.Hour
	defaultMaxUploadBytes = 10 << 20
)

// Deps are the collaborators the server routes requests to. Sessions,
// Receipts and Insights are required.
type Deps struct {
	Sessions *session.Registry
	Receipts *services.ReceiptService
	Insights *insights.Generator

	Limiter     *ratelimit.Limiter
	Detector    *security.Detector
	Logger      *log.Logger
	PromptCache *cache.LRUCache[string]

	CookieName     string
	SessionTTL     time.Duration
	MaxUploadBytes int64

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server serves the dashboard, upload and insights pages and their HTMX partials.
type Server struct {
	http.Server
	templates *template.Template

	sessions    *session.Registry
	receipts    *services.ReceiptService
	insights    *insights.Generator
	limiter     *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	promptCache *cache.LRUCache[string]

	logger     *log.Logger
	structured *log.StructuredLogger

	cookieName string
	sessionTTL time.Duration
	maxUpload  int64

	appMetrics *appMetrics
}

// NewServer wires the routes and middleware. Templates are parsed from the
// embedded web assets.
func NewServer(addr string, d Deps) (*Server, error) {
	if d.Sessions == nil || d.Receipts == nil || d.Insights == nil {
		return nil, errors.New("http: sessions, receipts and insights are required")
	}
	if d.Logger == nil {
		d.Logger = log.New(log.DefaultConfig())
	}
	if d.Detector == nil {
		det, err := security.NewDetector(security.DefaultTrustedProxies...)
		if err != nil {
			return nil, err
		}
		d.Detector = det
	}
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	if d.CookieName == "" {
		d.CookieName = defaultCookieName
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = defaultSessionTTL
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = defaultMaxUploadBytes
	}

	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	logger := d.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       d.ReadTimeout,
			WriteTimeout:      d.WriteTimeout,
			IdleTimeout:       d.IdleTimeout,
		},
		templates:   tmpl,
		sessions:    d.Sessions,
		receipts:    d.Receipts,
		insights:    d.Insights,
		limiter:     d.Limiter,
		detector:    d.Detector,
		tracer:      trace.NewMiddleware(d.Logger, d.Detector.ExtractClientIP),
		promptCache: d.PromptCache,
		logger:      logger,
		structured:  log.NewStructuredLogger(logger),
		cookieName:  d.CookieName,
		sessionTTL:  d.SessionTTL,
		maxUpload:   d.MaxUploadBytes,
		appMetrics:  &appMetrics{uptime: time.Now()},
	}
	s.Handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.Handle("GET /{$}", s.withSession(s.handleDashboard))
	mux.Handle("GET /ui/dashboard", s.withSession(s.handleDashboardPartial))
	mux.Handle("POST /budget", s.withSession(s.handleSetBudget))

	mux.Handle("POST /items", s.withSession(s.handleAddItem))
	mux.Handle("POST /items/{index}", s.withSession(s.handleUpdateItem))
	mux.Handle("POST /items/{index}/delete", s.withSession(s.handleDeleteItem))

	mux.Handle("GET /upload", s.withSession(s.handleUploadPage))
	mux.Handle("POST /receipts", s.withSession(s.handleUploadReceipt))

	mux.Handle("GET /insights", s.withSession(s.handleInsightsPage))
	mux.Handle("POST /insights/generate", s.withSession(s.handleGenerateInsights))
	mux.Handle("POST /insights/summary", s.withSession(s.handleSummary))

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)
	return h
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorFragment(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").
		Notify(core.ErrorNotice("Too many requests. Please wait a minute and try again.")).
		Write(w)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
	return s.Server.Shutdown(ctx)
}

// renderHTML executes a named template into a buffer so a failing template
// never produces a half-written page.
func (s *Server) renderHTML(ctx context.Context, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(ctx, "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.NewFields().With("template", name))
		return "", err
	}
	return buf.String(), nil
}

// render writes a full page or partial with status 200.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	html, err := s.renderHTML(r.Context(), name, data)
	if err != nil {
		ErrorFragment(http.StatusInternalServerError, "Unable to render page").Write(w)
		return
	}
	NewHTMXResponse().HTML(html).Write(w)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"dollars":    core.FormatDollars,
		"categories": core.Categories,
		"wantOrNeed": core.WantOrNeedValues,
		"fixed": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"lower": strings.ToLower,
	}
}
