package server

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/jrsteele09/vinylogger/discogs"
	"github.com/jrsteele09/vinylogger/users"
	"github.com/rs/zerolog"
)

const dashboardItems = 10

type pageData struct {
	AppName string
	Error   string
	User    *users.User

	Collection *discogs.CollectionPage
	Wantlist   *discogs.WantlistPage
}

func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.auth.CurrentUser(r); ok {
			http.Redirect(w, r, RouteDashboard, http.StatusSeeOther)
			return
		}
		s.render(w, r, s.indexTmpl, http.StatusOK, pageData{AppName: s.appName})
	}
}

// DashboardHandler shows the latest additions to the collection and the wantlist.
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		logger := zerolog.Ctx(r.Context())
		data := pageData{AppName: s.appName, User: user}

		collection, err := s.catalog.ListCollection(r.Context(), user, 1, dashboardItems)
		if err != nil {
			logger.Err(err).Msg("failed to load collection")
			data.Error = "Could not load your collection from Discogs"
		}
		data.Collection = collection

		wantlist, err := s.catalog.ListWantlist(r.Context(), user, 1, dashboardItems)
		if err != nil {
			logger.Err(err).Msg("failed to load wantlist")
			data.Error = "Could not load your wantlist from Discogs"
		}
		data.Wantlist = wantlist

		s.render(w, r, s.indexTmpl, http.StatusOK, data)
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, errorMsg string) {
	s.render(w, r, s.loginTmpl, status, pageData{AppName: s.appName, Error: errorMsg})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, status int, data pageData) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		zerolog.Ctx(r.Context()).Err(err).Str("template", tmpl.Name()).Msg("failed to render template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
