package api

import (
	"net/http"

	"spotbnb/internal/models"
	"spotbnb/internal/service"
)

// sessionUser is the signed-in user as returned to its owner.
type sessionUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Username  string `json:"username"`
}

type sessionBody struct {
	User *sessionUser `json:"user"`
}

func newSessionBody(u *models.User) sessionBody {
	if u == nil {
		return sessionBody{}
	}
	return sessionBody{User: &sessionUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Username:  u.Username,
	}}
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.services.Auth.Signup(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, newSessionBody(session.User))
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.services.Auth.Login(r.Context(), s.clientIP(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, newSessionBody(session.User))
}

func (s *HTTPServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSessionBody(currentUser(r.Context())))
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Auth.Logout(r.Context(), currentClaims(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "success")
}
