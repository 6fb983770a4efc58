package transport

import (
	"net/http"
	"net/url"
	"strings"

	"feedreader/internal/greader/service"
	"feedreader/internal/handler/http/respond"
)

// handleUnreadCount implements GET /reader/api/0/unread-count: optional
// all=1 (spec.md §6).
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writePlainBadRequest(w, err)
		return
	}
	user := userFromContext(r.Context())
	includeAll := r.FormValue("all") == "1"

	counts, err := s.svc.UnreadCounts(r.Context(), user.ID, includeAll)
	if err != nil {
		respond.SafeErrorV2(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, counts)
}

// handleStreamItemIDs implements GET /reader/api/0/stream/items/ids: s, n,
// ot, xt, it, r (spec.md §6).
func (s *Server) handleStreamItemIDs(w http.ResponseWriter, r *http.Request) {
	p, err := parseStreamReadParams(r)
	if err != nil {
		writePlainBadRequest(w, err)
		return
	}
	user := userFromContext(r.Context())

	refs, err := s.svc.StreamItemIDs(r.Context(), user.ID, p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, struct {
		ItemRefs []service.ItemRef `json:"itemRefs"`
	}{ItemRefs: refs})
}

// handleStreamContents implements GET/POST /reader/api/0/stream/contents[/<id>]
// (spec.md §6). A trailing path segment after "stream/contents/" names an
// explicit stream-id (e.g. "feed%2F123"), taking the place of the "s" query
// param, matching the rest of this codebase's pathutil-based id-in-path
// idiom rather than a net/http wildcard route.
func (s *Server) handleStreamContents(w http.ResponseWriter, r *http.Request) {
	p, err := parseStreamReadParams(r)
	if err != nil {
		writePlainBadRequest(w, err)
		return
	}
	if pathStreamID := extractStreamContentsPathID(r.URL.Path); pathStreamID != "" {
		p.StreamID = pathStreamID
	}

	user := userFromContext(r.Context())
	itemIDs := r.Form["i"]
	continuation := r.FormValue("c")

	resp, err := s.svc.StreamContents(r.Context(), user.ID, p, itemIDs, continuation)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, resp)
}

// handleStreamItemsContents implements GET/POST
// /reader/api/0/stream/items/contents: identical params and response shape
// to stream/contents, but item ids only, no path-scoped stream (spec.md §6).
func (s *Server) handleStreamItemsContents(w http.ResponseWriter, r *http.Request) {
	s.handleStreamContents(w, r)
}

const streamContentsPrefix = "/reader/api/0/stream/contents/"

// extractStreamContentsPathID pulls the optional stream-id path segment off
// a stream/contents/<id> request, URL-decoding it since a stream-id like
// "feed/123" or "user/-/label/Tech" itself contains slashes.
func extractStreamContentsPathID(path string) string {
	idx := strings.Index(path, streamContentsPrefix)
	if idx == -1 {
		return ""
	}
	rest := strings.TrimSuffix(path[idx+len(streamContentsPrefix):], "/")
	if rest == "" {
		return ""
	}
	if decoded, err := url.PathUnescape(rest); err == nil {
		return decoded
	}
	return rest
}
