package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jrsteele09/vinylogger/discogs"
	"github.com/rs/zerolog"
)

func (s *Server) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		writeJSON(w, http.StatusOK, user.Identity)
	}
}

func (s *Server) ListCollectionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		page, perPage := pageParams(r)
		collection, err := s.catalog.ListCollection(r.Context(), user, page, perPage)
		if err != nil {
			s.catalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, collection)
	}
}

func (s *Server) AddToCollectionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		releaseID, ok := pathID(w, r, "releaseId")
		if !ok {
			return
		}
		instance, err := s.catalog.AddToCollection(r.Context(), user, releaseID)
		if err != nil {
			s.catalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, instance)
	}
}

func (s *Server) RemoveFromCollectionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		releaseID, ok := pathID(w, r, "releaseId")
		if !ok {
			return
		}
		instanceID, ok := pathID(w, r, "instanceId")
		if !ok {
			return
		}
		if err := s.catalog.RemoveFromCollection(r.Context(), user, releaseID, instanceID); err != nil {
			s.catalogError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ListWantlistHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		page, perPage := pageParams(r)
		wantlist, err := s.catalog.ListWantlist(r.Context(), user, page, perPage)
		if err != nil {
			s.catalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, wantlist)
	}
}

func (s *Server) AddToWantlistHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		releaseID, ok := pathID(w, r, "releaseId")
		if !ok {
			return
		}
		want, err := s.catalog.AddToWantlist(r.Context(), user, releaseID)
		if err != nil {
			s.catalogError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, want)
	}
}

func (s *Server) RemoveFromWantlistHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		releaseID, ok := pathID(w, r, "releaseId")
		if !ok {
			return
		}
		if err := s.catalog.RemoveFromWantlist(r.Context(), user, releaseID); err != nil {
			s.catalogError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// catalogError passes a provider status through to the caller. Anything else is a bad gateway.
func (s *Server) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *discogs.UpstreamAPIError
	if errors.As(err, &apiErr) {
		zerolog.Ctx(r.Context()).Warn().Int("status", apiErr.Status).Str("url", apiErr.URL).Msg("discogs rejected the request")
		writeJSONError(w, apiErr.Status, "upstream_error", http.StatusText(apiErr.Status))
		return
	}
	zerolog.Ctx(r.Context()).Err(err).Msg("discogs request failed")
	writeJSONError(w, http.StatusBadGateway, "upstream_unavailable", "Discogs could not be reached")
}

// pageParams reads ?page= and ?per_page=. The client clamps the values.
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return page, perPage
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid "+name)
		return 0, false
	}
	return id, true
}
