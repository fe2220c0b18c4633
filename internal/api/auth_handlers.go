package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/Mmohamed-56/StudyMon/internal/constants"
	"github.com/Mmohamed-56/StudyMon/internal/logging"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// UserStore persists trainer profiles at sign-in.
type UserStore interface {
	UpsertUser(email, name string) error
}

type AuthHandler struct {
	users UserStore
}

func NewAuthHandler(users UserStore) *AuthHandler {
	return &AuthHandler{users: users}
}

type GoogleOAuthCallbackRequest struct {
	Code string `json:"code"`
}

// GoogleOAuthCallback exchanges the authorization code for a Google profile,
// upserts the trainer record and mints a session cookie.
func (h *AuthHandler) GoogleOAuthCallback(c *gin.Context) {
	var req GoogleOAuthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	googleClientID := os.Getenv(constants.EnvGoogleClientID)
	googleClientSecret := os.Getenv(constants.EnvGoogleClientSecret)
	if googleClientID == "" || googleClientSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMissingGoogleEnv})
		return
	}

	conf := &oauth2.Config{
		ClientID:     googleClientID,
		ClientSecret: googleClientSecret,
		RedirectURL:  constants.GoogleOAuthRedirect,
		Scopes:       constants.GoogleUserInfoScopes,
		Endpoint:     google.Endpoint,
	}

	token, err := conf.Exchange(context.Background(), req.Code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrFailedExchangeToken, constants.JSONKeyDetails: err.Error()})
		return
	}

	client := conf.Client(context.Background(), token)
	resp, err := client.Get(constants.GoogleUserInfoURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedGetUserInfo, constants.JSONKeyDetails: err.Error()})
		return
	}
	defer resp.Body.Close()

	userData, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedGetUserInfo, constants.JSONKeyDetails: err.Error()})
		return
	}

	// Parse minimal fields from user info
	var payload map[string]any
	_ = json.Unmarshal(userData, &payload)
	email, _ := payload["email"].(string)
	name, _ := payload["name"].(string)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{constants.JSONKeyError: constants.ErrNoEmailInGoogleProfile})
		return
	}
	picture, _ := payload["picture"].(string)

	h.finishSignIn(c, email, name, picture)
}

// finishSignIn records the trainer profile and mints the session cookie. A
// profile that cannot be saved must not receive a session: downstream win
// counters and stats update the trainer row by email.
func (h *AuthHandler) finishSignIn(c *gin.Context, email, name, picture string) {
	if h.users != nil {
		if err := h.users.UpsertUser(email, name); err != nil {
			logging.Error("failed to save trainer profile", err, logging.Fields{constants.LogFieldUser: email})
			c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedSaveProfile})
			return
		}
	}

	sess, err := createSessionToken(email, name, sessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedCreateSession, constants.JSONKeyDetails: err.Error()})
		return
	}
	setSessionCookie(c, sess, sessionTTL)

	out := map[string]any{"email": email, "name": name}
	if picture != "" {
		out["picture"] = picture
	}
	c.JSON(http.StatusOK, out)
}
