package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare(s.RequireUser)...))

	// LOGIN
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteLoginCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// API routes (require the session cookie)
	s.RegisterRouteFunc("GET "+RouteAPIProfile, ChainMiddleware(s.ProfileHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAPICollection, ChainMiddleware(s.ListCollectionHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAPICollectionRelease, ChainMiddleware(s.AddToCollectionHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("DELETE "+RouteAPICollectionInstance, ChainMiddleware(s.RemoveFromCollectionHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAPIWantlist, ChainMiddleware(s.ListWantlistHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("PUT "+RouteAPIWantlistRelease, ChainMiddleware(s.AddToWantlistHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("DELETE "+RouteAPIWantlistRelease, ChainMiddleware(s.RemoveFromWantlistHandler(), s.APIMiddleware()...))

	// System routes
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.SystemMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.RegisterRouteFunc("GET "+RouteStatic, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := r.PathValue("file")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=300, must-revalidate")
		if err := StreamFile(w, r, filePath); err != nil {
			if s.env == "DEV" {
				logError(r.Method, r.URL.Path, err.Error())
			}
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
