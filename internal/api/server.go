// Package api provides the HTTP API server and handlers for Shelfside.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shelfside/shelfside/internal/media"
	"github.com/shelfside/shelfside/internal/search"
	"github.com/shelfside/shelfside/internal/service"
	"github.com/shelfside/shelfside/internal/store/sqlite"
)

// Services groups the business services the handlers call.
type Services struct {
	Auth    *service.AuthService
	Books   *service.BookService
	Forum   *service.ForumService
	Profile *service.ProfileService
	Admin   *service.AdminService
}

// Options tunes the HTTP surface.
type Options struct {
	CORSOrigins []string

	// LoginRate is the sustained login attempts allowed per client IP per minute.
	LoginRate  int
	LoginBurst int

	MaxBookBytes   int64
	MaxCoverBytes  int64
	MaxAvatarBytes int64
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *sqlite.Store
	index           *search.BookIndex
	files           *media.Storage
	services        *Services
	opts            Options
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
	authRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *sqlite.Store, index *search.BookIndex, files *media.Storage, services *Services, opts Options, logger *slog.Logger) *Server {
	if opts.LoginRate <= 0 {
		opts.LoginRate = 10
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}

	s := &Server{
		store:           st,
		index:           index,
		files:           files,
		services:        services,
		opts:            opts,
		router:          chi.NewRouter(),
		logger:          logger,
		authRateLimiter: NewRateLimiter(opts.LoginRate, opts.LoginBurst),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Shelfside API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerPostRoutes()
	s.registerProfileRoutes()
	s.registerAdminRoutes()
	s.registerUploadRoutes()
	s.registerFileRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Device-ID"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(authMiddleware(s.services.Auth))
	s.router.Use(limitPath(http.MethodPost, loginPath, RateLimitMiddleware(s.authRateLimiter, s.logger)))
}

// registerFileRoutes serves uploaded books, covers and avatars. Directory
// listings are not served.
func (s *Server) registerFileRoutes() {
	fs := http.StripPrefix(media.URLPrefix, http.FileServer(http.Dir(s.files.Root())))
	s.router.Get(media.URLPrefix+"*", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", CacheOneWeek)
		fs.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
