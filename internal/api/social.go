package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/emersion/go-vcard"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/nugget/accountable/internal/store"
)

// inviteSize is the edge length of invite QR codes in pixels.
const inviteSize = 256

func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"user_id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Email == "" {
		s.errorResponse(w, http.StatusBadRequest, "user_id and email are required")
		return
	}
	if _, err := s.store.UpsertUser(r.Context(), store.User{
		ID:      req.UserID,
		Email:   req.Email,
		Name:    req.Name,
		Picture: req.Picture,
	}); err != nil {
		s.storeError(w, err, "")
		return
	}
	s.message(w, "User registered successfully")
}

func (s *Server) handleFriendSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string `json:"email"`
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		s.ok(w, map[string]any{"users": []store.User{}})
		return
	}
	users, err := s.store.SearchUsers(r.Context(), strings.TrimSpace(req.Email), s.userID(r, req.UserID))
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]any{"users": nonNil(users)})
}

func (s *Server) handleFriendRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		FriendID string `json:"friend_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	from := s.userID(r, req.UserID)
	switch req.FriendID {
	case "":
		s.errorResponse(w, http.StatusBadRequest, "friend_id is required")
		return
	case from:
		s.errorResponse(w, http.StatusBadRequest, "cannot send a friend request to yourself")
		return
	}

	id, err := s.store.SendFriendRequest(r.Context(), from, req.FriendID)
	if err != nil {
		s.storeError(w, err, "User not found")
		return
	}
	s.ok(w, map[string]any{"message": "Friend request sent!", "request_id": id})
}

func (s *Server) handleFriendRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.store.PendingFriendRequests(r.Context(), s.userID(r, ""))
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]any{"requests": nonNil(reqs)})
}

func (s *Server) handleFriendRespond(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status store.RequestStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != store.RequestAccepted && req.Status != store.RequestRejected {
		s.errorResponse(w, http.StatusBadRequest, "status must be accepted or rejected")
		return
	}
	if err := s.store.RespondFriendRequest(r.Context(), id, req.Status); err != nil {
		s.storeError(w, err, "Request not found")
		return
	}
	s.message(w, fmt.Sprintf("Friend request %s", req.Status))
}

func (s *Server) handleFriendList(w http.ResponseWriter, r *http.Request) {
	friends, err := s.store.ListFriends(r.Context(), s.userID(r, ""))
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]any{"friends": nonNil(friends)})
}

// requireFriend writes a 403 unless the requesting user is friends with
// the path's friend_id.
func (s *Server) requireFriend(w http.ResponseWriter, r *http.Request) (string, bool) {
	friendID := r.PathValue("friend_id")
	ok, err := s.store.AreFriends(r.Context(), s.userID(r, ""), friendID)
	if err != nil {
		s.storeError(w, err, "")
		return "", false
	}
	if !ok {
		s.errorResponse(w, http.StatusForbidden, "not friends with this user")
		return "", false
	}
	return friendID, true
}

func (s *Server) handleFriendTasks(w http.ResponseWriter, r *http.Request) {
	friendID, ok := s.requireFriend(w, r)
	if !ok {
		return
	}
	tasks, err := s.store.PendingTasks(r.Context(), friendID)
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]any{"tasks": nonNil(tasks)})
}

func (s *Server) handleFriendGoals(w http.ResponseWriter, r *http.Request) {
	friendID, ok := s.requireFriend(w, r)
	if !ok {
		return
	}
	goals, err := s.store.IncompleteGoals(r.Context(), friendID)
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]any{"goals": nonNil(goals)})
}

// inviteURL is the payload encoded in a user's invite QR code.
func inviteURL(userID string) string {
	return "accountable://friends/request?friend_id=" + url.QueryEscape(userID)
}

func (s *Server) handleFriendInvite(w http.ResponseWriter, r *http.Request) {
	uid := s.userID(r, "")
	png, err := qrcode.Encode(inviteURL(uid), qrcode.Medium, inviteSize)
	if err != nil {
		s.logger.Error("encode invite QR code", "user", uid, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "could not create invite")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(png); err != nil {
		s.logger.Debug("failed to write invite", "error", err)
	}
}

// friendCard converts a user to a vCard 4.0 card.
func friendCard(u store.User) vcard.Card {
	card := vcard.Card{}
	card.SetValue(vcard.FieldUID, u.ID)
	name := u.Name
	if name == "" {
		name = u.Email
	}
	card.SetValue(vcard.FieldFormattedName, name)
	card.AddValue(vcard.FieldEmail, u.Email)
	if u.Picture != "" {
		card.SetValue(vcard.FieldPhoto, u.Picture)
	}
	vcard.ToV4(card)
	return card
}

func (s *Server) handleFriendExport(w http.ResponseWriter, r *http.Request) {
	friends, err := s.store.ListFriends(r.Context(), s.userID(r, ""))
	if err != nil {
		s.storeError(w, err, "")
		return
	}

	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="friends.vcf"`)
	enc := vcard.NewEncoder(w)
	for _, f := range friends {
		if err := enc.Encode(friendCard(f)); err != nil {
			s.logger.Debug("failed to write vcard", "friend", f.ID, "error", err)
			return
		}
	}
}

func (s *Server) handleMessageList(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.store.ListMessages(r.Context(), s.userID(r, ""))
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.ok(w, map[string]any{"messages": nonNil(msgs)})
}
