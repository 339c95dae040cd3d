package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/homefinder/internal/common"
	"github.com/dmitrijs2005/homefinder/internal/devapi/users"
)

const maxBodySize = 1 << 20

type response struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message,omitempty"`
	User        *users.PublicUser `json:"user,omitempty"`
	AccessToken string            `json:"accessToken,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type profileRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar"`
	Agency string `json:"agency"`
}

func writeJSON(w http.ResponseWriter, status int, resp response) {
	resp.Success = status >= 200 && status < 300
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "malformed JSON body"})
		return false
	}
	return true
}

// writeError maps service errors to HTTP statuses. Unknown errors are
// logged and reported as 500 without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var msg string

	switch {
	case errors.Is(err, common.ErrorValidation):
		status, msg = http.StatusBadRequest, strings.TrimPrefix(err.Error(), common.ErrorValidation.Error()+": ")
	case errors.Is(err, users.ErrInvalidOTP):
		status, msg = http.StatusBadRequest, "Invalid or expired verification code"
	case errors.Is(err, common.ErrorUnauthorized):
		status, msg = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, users.ErrNotVerified):
		status, msg = http.StatusForbidden, "Please verify your email first"
	case errors.Is(err, common.ErrorAlreadyExists):
		status, msg = http.StatusConflict, "An account with this email already exists"
	case errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusNotFound, "Account not found"
	default:
		h.logger.Error(r.Context(), "request failed", "error", err)
		status, msg = http.StatusInternalServerError, "Internal server error"
	}

	writeJSON(w, status, response{Message: msg})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Message: "OK"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer common.WipeByteArray(password)

	user, err := h.users.Register(r.Context(), users.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: password,
		Role:     req.Role,
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{Message: "Verification code sent to " + user.Email})
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.users.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Message:     "Account verified",
		User:        sess.User.Public(),
		AccessToken: sess.AccessToken,
	})
}

func (h *Handler) resendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.users.ResendOTP(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Message: "Verification code sent to " + req.Email})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	password := []byte(req.Password)
	defer common.WipeByteArray(password)

	sess, err := h.users.Login(r.Context(), req.Email, password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		User:        sess.User.Public(),
		AccessToken: sess.AccessToken,
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	user, err := h.users.Profile(r.Context(), claims.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{User: user.Public()})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var req profileRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), claims.UserID, users.ProfileUpdate{
		Name:   req.Name,
		Phone:  req.Phone,
		Avatar: req.Avatar,
		Agency: req.Agency,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Message: "Profile updated", User: user.Public()})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	h.users.Logout(r.Context(), claims)
	writeJSON(w, http.StatusOK, response{Message: "Logged out"})
}
