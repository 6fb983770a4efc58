package transport

import (
	"net/http"
	"strconv"

	"feedreader/internal/greader/service"
)

// handleEditTag implements POST /reader/api/0/edit-tag: multi i, optional
// a/r (spec.md §6).
func (s *Server) handleEditTag(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writePlainBadRequest(w, err)
		return
	}
	user := userFromContext(r.Context())
	itemIDs := r.Form["i"]
	addTag := r.FormValue("a")
	removeTag := r.FormValue("r")

	if _, err := s.svc.EditTags(r.Context(), user.ID, itemIDs, addTag, removeTag); err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w)
}

// handleMarkAllAsRead implements POST /reader/api/0/mark-all-as-read: s,
// optional ts (unix seconds cutoff, spec.md §6).
func (s *Server) handleMarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writePlainBadRequest(w, err)
		return
	}
	user := userFromContext(r.Context())
	streamID := r.FormValue("s")

	var olderThan *int64
	if ts := r.FormValue("ts"); ts != "" {
		n, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			writePlainBadRequest(w, err)
			return
		}
		olderThan = &n
	}

	if err := s.svc.MarkAllRead(r.Context(), user.ID, streamID, olderThan); err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w)
}

// parseStreamReadParams reads the common s/n/ot/xt/it/r query params
// shared by stream/items/ids, stream/contents, and stream/items/contents
// (spec.md §4.9/§6). GET and POST are both accepted, so r.Form (populated
// by r.ParseForm for POST, and by r.URL.Query for GET automatically via
// ParseForm) backs every lookup.
func parseStreamReadParams(r *http.Request) (service.StreamReadParams, error) {
	if err := r.ParseForm(); err != nil {
		return service.StreamReadParams{}, err
	}

	p := service.StreamReadParams{
		StreamID:   r.FormValue("s"),
		ExcludeTag: r.FormValue("xt"),
		IncludeTag: r.FormValue("it"),
	}
	if n := r.FormValue("n"); n != "" {
		if limit, err := strconv.Atoi(n); err == nil {
			p.Limit = limit
		}
	}
	if ot := r.FormValue("ot"); ot != "" {
		if sec, err := strconv.ParseInt(ot, 10, 64); err == nil {
			p.OlderThan = &sec
		}
	}
	// "r=o" requests ascending order; anything else (including absent)
	// keeps the GReader default of newest-first.
	p.NewestFirst = r.FormValue("r") != "o"
	return p, nil
}
