package dto

import "github.com/google/uuid"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Account      AccountResponse `json:"account"`
}

type AccountResponse struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Nickname string    `json:"nickname"`
	Role     string    `json:"role"`
}

// LineCallbackRequest carries the LINE Login authorization code.
type LineCallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// LineCompleteRequest finishes a login for a first-time user who had no
// verified email: the same code exchange plus the collected profile.
type LineCompleteRequest struct {
	Code          string   `json:"code"`
	RedirectURI   string   `json:"redirect_uri"`
	Nickname      string   `json:"nickname"`
	SelectedAreas []string `json:"selected_areas"`
}

// NeedsProfileResponse is returned instead of tokens when the resolver
// could not establish a verified identity without more info.
type NeedsProfileResponse struct {
	NeedsProfile bool   `json:"needs_profile"`
	DisplayName  string `json:"display_name"`
	PictureURL   string `json:"picture_url"`
}

type RedeemLinkCodeRequest struct {
	Code string `json:"code"`
}

// LinkStatusResponse describes the caller's LINE link, if any.
type LinkStatusResponse struct {
	Linked               bool   `json:"linked"`
	DisplayName          string `json:"display_name,omitempty"`
	AvatarURL            string `json:"avatar_url,omitempty"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// UpdateNotificationsRequest toggles push delivery. Enabled is a pointer
// so an absent field is distinguishable from an explicit false.
type UpdateNotificationsRequest struct {
	Enabled *bool `json:"enabled"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
