package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/jrsteele09/vinylogger/auth"
	"github.com/jrsteele09/vinylogger/discogs"
	"github.com/jrsteele09/vinylogger/internal/config"
	"github.com/jrsteele09/vinylogger/users"
	"github.com/prometheus/client_golang/prometheus"
)

// Catalog is the part of the Discogs client the JSON API needs.
type Catalog interface {
	ListCollection(ctx context.Context, user *users.User, page, perPage int) (*discogs.CollectionPage, error)
	AddToCollection(ctx context.Context, user *users.User, releaseID int) (*discogs.CollectionInstance, error)
	RemoveFromCollection(ctx context.Context, user *users.User, releaseID, instanceID int) error
	ListWantlist(ctx context.Context, user *users.User, page, perPage int) (*discogs.WantlistPage, error)
	AddToWantlist(ctx context.Context, user *users.User, releaseID int) (*discogs.WantAdded, error)
	RemoveFromWantlist(ctx context.Context, user *users.User, releaseID int) error
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Deps holds the server's collaborators
type Deps struct {
	Auth         *auth.Authenticator    // Login state machine
	Catalog      Catalog                // Signed catalog calls
	Gatherer     prometheus.Gatherer    // Source for /metrics
	HealthChecks map[string]HealthCheck // Extra checks for /healthz (e.g. redis)
}

type Server struct {
	env       string // Environment ("DEV" or "PRODUCTION")
	appName   string
	mux       *http.ServeMux
	routes    []string
	auth      *auth.Authenticator
	catalog   Catalog
	gatherer  prometheus.Gatherer
	checks    map[string]HealthCheck
	indexTmpl *template.Template
	loginTmpl *template.Template
}

func New(c config.EnvConfig, deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("[Server New] authenticator is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("[Server New] catalog is required")
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	indexTmpl, err := ParseTemplate("index.html")
	if err != nil {
		return nil, errors.Join(errors.New("[Server New] failed to parse index template"), err)
	}
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		return nil, errors.Join(errors.New("[Server New] failed to parse login template"), err)
	}

	s := &Server{
		env:       c.GetEnv(),
		appName:   c.GetAppName(),
		mux:       http.NewServeMux(),
		auth:      deps.Auth,
		catalog:   deps.Catalog,
		gatherer:  deps.Gatherer,
		checks:    deps.HealthChecks,
		indexTmpl: indexTmpl,
		loginTmpl: loginTmpl,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDev {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}
