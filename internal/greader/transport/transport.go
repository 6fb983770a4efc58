// Package transport implements the GReader-compatible HTTP surface
// (spec.md §4.10/§6, C13): ClientLogin, token issuance, subscription and
// tag management, and stream reads. It sits in front of
// internal/greader/service, translating query/form parameters into
// service calls and service results into the GReader wire format,
// grounded on original_source/core/views/greader/*.py and, for HTTP
// plumbing idiom, internal/handler/http/health.go.
package transport

import (
	"context"
	"net/http"
	"time"

	"feedreader/internal/domain/entity"
	"feedreader/internal/greader/service"
	"feedreader/internal/repository"
)

// Server wires the GReader service layer to net/http, mounted by the
// caller under a base path (spec.md §6: "/api/greader/...").
type Server struct {
	svc    *service.Service
	users  repository.UserRepository
	tokens repository.AuthTokenRepository
	now    func() time.Time
}

// NewServer builds a Server. now defaults to time.Now when nil.
func NewServer(svc *service.Service, users repository.UserRepository, tokens repository.AuthTokenRepository, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	return &Server{svc: svc, users: users, tokens: tokens, now: now}
}

// Routes registers every GReader endpoint on mux under prefix (typically
// "/api/greader"). prefix must not have a trailing slash.
func (s *Server) Routes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("POST "+prefix+"/accounts/ClientLogin", s.handleClientLogin)
	mux.HandleFunc(prefix+"/reader/api/0/token", s.authenticated(s.handleToken))
	mux.HandleFunc(prefix+"/reader/api/0/user-info", s.authenticated(s.handleUserInfo))
	mux.HandleFunc(prefix+"/reader/api/0/subscription/list", s.authenticated(s.handleSubscriptionList))
	mux.HandleFunc(prefix+"/reader/api/0/subscription/edit", s.authenticated(s.handleSubscriptionEdit))
	mux.HandleFunc(prefix+"/reader/api/0/tag/list", s.authenticated(s.handleTagList))
	mux.HandleFunc(prefix+"/reader/api/0/edit-tag", s.authenticated(s.handleEditTag))
	mux.HandleFunc(prefix+"/reader/api/0/mark-all-as-read", s.authenticated(s.handleMarkAllAsRead))
	mux.HandleFunc(prefix+"/reader/api/0/unread-count", s.authenticated(s.handleUnreadCount))
	mux.HandleFunc(prefix+"/reader/api/0/stream/items/ids", s.authenticated(s.handleStreamItemIDs))
	mux.HandleFunc(prefix+"/reader/api/0/stream/items/contents", s.authenticated(s.handleStreamItemsContents))
	// Go 1.22+ wildcard is intentionally avoided here to match the rest of
	// the handler tree's pathutil.ExtractID idiom: the trailing "/" form
	// below is matched first by net/http's longest-pattern-wins rule, and
	// handleStreamContents trims the id itself from r.URL.Path.
	mux.HandleFunc(prefix+"/reader/api/0/stream/contents/", s.authenticated(s.handleStreamContents))
	mux.HandleFunc(prefix+"/reader/api/0/stream/contents", s.authenticated(s.handleStreamContents))
}

// authContextKey carries the authenticated user through the request
// context, following internal/handler/http/requestid's contextKey idiom.
type authContextKey string

const userContextKey authContextKey = "greader_user"

func userFromContext(ctx context.Context) *entity.User {
	u, _ := ctx.Value(userContextKey).(*entity.User)
	return u
}

func contextWithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}
