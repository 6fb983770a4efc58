package transport

import (
	"fmt"
	"net/http"

	"feedreader/internal/greader/service"
	"feedreader/internal/handler/http/respond"
)

// userInfoResponse is the /reader/api/0/user-info envelope (spec.md §6).
type userInfoResponse struct {
	UserID        string `json:"userId"`
	UserName      string `json:"userName"`
	UserProfileID string `json:"userProfileId"`
	UserEmail     string `json:"userEmail"`
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	resp := userInfoResponse{
		UserID:        fmt.Sprintf("%d", user.ID),
		UserName:      user.DisplayName,
		UserProfileID: fmt.Sprintf("%d", user.ID),
		UserEmail:     user.Email,
	}
	respond.JSON(w, http.StatusOK, resp)
}

type subscriptionListResponse struct {
	Subscriptions []service.Subscription `json:"subscriptions"`
}

func (s *Server) handleSubscriptionList(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	subs, err := s.svc.ListSubscriptions(r.Context(), user.ID)
	if err != nil {
		respond.SafeErrorV2(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, subscriptionListResponse{Subscriptions: subs})
}

// handleSubscriptionEdit implements POST /reader/api/0/subscription/edit:
// form s, ac, optional t, multi a/r (spec.md §6).
func (s *Server) handleSubscriptionEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writePlainBadRequest(w, err)
		return
	}
	user := userFromContext(r.Context())
	params := service.EditSubscriptionParams{
		StreamID:     r.FormValue("s"),
		Action:       r.FormValue("ac"),
		Title:        r.FormValue("t"),
		AddLabels:    r.Form["a"],
		RemoveLabels: r.Form["r"],
	}
	if err := s.svc.EditSubscription(r.Context(), user.ID, params); err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w)
}

type tagListResponse struct {
	Tags []service.Tag `json:"tags"`
}

func (s *Server) handleTagList(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	tags, err := s.svc.ListTags(r.Context(), user.ID)
	if err != nil {
		respond.SafeErrorV2(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, tagListResponse{Tags: tags})
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func writePlainBadRequest(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintf(w, "Error=%s\n", err.Error())
}
