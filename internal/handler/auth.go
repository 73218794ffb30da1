package handler

import (
	"net/http"

	"github.com/najiyasheri/pawsome/internal/domain/user"
)

type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode,omitempty"`
}

type userResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage,omitempty"`
	Verified     bool   `json:"verified"`
	ReferralCode string `json:"referralCode"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
		Verified:     u.Verified,
		ReferralCode: u.ReferralCode,
	}
}

// Register creates an account and emails the verification code.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		badRequest(w, "name, email, and a password of at least 8 characters are required")
		return
	}

	u, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password, req.ReferralCode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

type otpRequest struct {
	Email string `json:"email"`
	Code  string `json:"code,omitempty"`
}

// VerifyOTP marks the account verified when the code matches.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.users.VerifyOTP(r.Context(), req.Email, req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// ResendOTP issues a fresh verification code.
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.users.ResendOTP(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Login checks credentials and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	token, u, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: toUserResponse(u)})
}

// Logout invalidates the presented session token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Profile returns the authenticated user.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(currentUser(r.Context())))
}

type profileUpdateRequest struct {
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
}

// UpdateProfile updates the authenticated user's profile fields.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}

	u := currentUser(r.Context())
	if err := h.users.UpdateProfile(r.Context(), u.ID, req.Name, req.ProfileImage); err != nil {
		writeError(w, r, err)
		return
	}
	u.Name = req.Name
	u.ProfileImage = req.ProfileImage
	writeJSON(w, http.StatusOK, toUserResponse(u))
}
