package v1

import (
	"errors"
	"net/http"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/auth"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service"
)

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
}

// LoginRequest is the payload for obtaining tokens.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the payload for renewing an access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse carries a fresh token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// register handles POST /api/v1/auth/register
func (rr *Routes) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Username == "" {
		rr.writeErrorResponse(w, "email and username are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		rr.writeErrorResponse(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}

	user := &models.User{
		Email:          req.Email,
		Username:       req.Username,
		HashedPassword: hashed,
		Role:           models.RoleUser,
		PhoneNumber:    req.PhoneNumber,
		Address:        req.Address,
	}
	if err := rr.deps.Users.CreateUser(r.Context(), user); err != nil {
		rr.writeServiceError(w, err)
		return
	}

	rr.writeJSONResponse(w, http.StatusCreated, user)
}

// login handles POST /api/v1/auth/login
func (rr *Routes) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := rr.deps.Users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			rr.writeErrorResponse(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		rr.writeServiceError(w, err)
		return
	}
	if !auth.CheckPassword(user.HashedPassword, req.Password) {
		rr.writeErrorResponse(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	access, err := rr.deps.Tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}
	refresh, err := rr.deps.Tokens.IssueRefreshToken(user.ID)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}

	rr.writeJSONResponse(w, http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	})
}

// refresh handles POST /api/v1/auth/refresh
func (rr *Routes) refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		rr.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	identity, err := rr.deps.Tokens.Verify(req.RefreshToken)
	if err != nil {
		rr.writeErrorResponse(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	// Re-read the user so a role change since issuance takes effect.
	user, err := rr.deps.Users.GetUser(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			rr.writeErrorResponse(w, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		rr.writeServiceError(w, err)
		return
	}

	access, err := rr.deps.Tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		rr.writeServiceError(w, err)
		return
	}

	rr.writeJSONResponse(w, http.StatusOK, TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
	})
}
