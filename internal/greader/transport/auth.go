package transport

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"feedreader/internal/domain/entity"
	"feedreader/internal/handler/http/respond"
)

// tokenBytes is half of a 64-char lowercase hex GReader auth token
// (entity.GReaderAuthToken's documented shape).
const tokenBytes = 32

// postTokenBytes yields a 57-character hex string for the throwaway
// /reader/api/0/token endpoint (spec.md §4.10): not persisted, just proof
// the client can reach an authenticated endpoint before a write.
const postTokenHexChars = 57

func randomHexToken(hexChars int) (string, error) {
	n := (hexChars + 1) / 2
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("transport: randomHexToken: %w", err)
	}
	return hex.EncodeToString(buf)[:hexChars], nil
}

// handleClientLogin implements POST /accounts/ClientLogin (spec.md §4.10):
// form Email/Passwd, text/plain SID/LSID/Auth on success, 403
// Error=BadAuthentication on failure.
func (s *Server) handleClientLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadAuth(w)
		return
	}
	email := r.FormValue("Email")
	password := r.FormValue("Passwd")
	if email == "" || password == "" {
		writeBadAuth(w)
		return
	}

	ctx := r.Context()
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil || user == nil || !user.CheckPassword(password) {
		writeBadAuth(w)
		return
	}

	token, err := randomHexToken(tokenBytes * 2)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, err)
		return
	}
	authToken := &entity.GReaderAuthToken{Token: token, OwnerID: user.ID, CreatedAt: s.now()}
	if err := s.tokens.Create(ctx, authToken); err != nil {
		respond.Error(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "SID=%s\nLSID=\nAuth=%s\n", token, token)
}

func writeBadAuth(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	fmt.Fprint(w, "Error=BadAuthentication\n")
}

// handleToken implements GET /reader/api/0/token: a fresh opaque token on
// every call, proving the caller is authenticated before a write request.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	token, err := randomHexToken(postTokenHexChars)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, token)
}

// bearerToken extracts the token from "Authorization: GoogleLogin
// auth=<token>" or, failing that, the greader_auth session cookie
// (spec.md §4.10).
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if rest, ok := strings.CutPrefix(auth, "GoogleLogin auth="); ok {
			return strings.TrimSpace(rest)
		}
	}
	if cookie, err := r.Cookie("greader_auth"); err == nil {
		return cookie.Value
	}
	return ""
}

// wantsJSON reports whether a 401 should be rendered as JSON rather than
// plain text, per spec.md §4.10: "as JSON for JSON endpoints (Accept/
// Content-Type or known JSON paths), plain text otherwise."
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		return true
	}
	switch {
	case strings.HasSuffix(r.URL.Path, "/user-info"),
		strings.HasSuffix(r.URL.Path, "/subscription/list"),
		strings.HasSuffix(r.URL.Path, "/tag/list"),
		strings.HasSuffix(r.URL.Path, "/unread-count"),
		strings.Contains(r.URL.Path, "/stream/"):
		return true
	}
	return false
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		respond.Error(w, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprint(w, "Unauthorized\n")
}

// authenticated wraps next, resolving the caller's token into an
// entity.User in the request context, and rejecting with 401 on a miss or
// an expired token.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeUnauthorized(w, r)
			return
		}

		ctx := r.Context()
		authToken, err := s.tokens.Get(ctx, token)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, err)
			return
		}
		if authToken == nil || authToken.Expired(s.now()) {
			writeUnauthorized(w, r)
			return
		}

		user, err := s.users.Get(ctx, authToken.OwnerID)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, err)
			return
		}
		if user == nil {
			writeUnauthorized(w, r)
			return
		}

		ctx = contextWithUser(ctx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
