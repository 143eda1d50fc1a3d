package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aidetectsai/detector-api/auth"
	"github.com/aidetectsai/detector-api/auth/authctx"
	"github.com/aidetectsai/detector-api/auth/provision"
	"github.com/aidetectsai/detector-api/database"
	apperrors "github.com/aidetectsai/detector-api/errors"
	"github.com/aidetectsai/detector-api/logger"
	"github.com/aidetectsai/detector-api/server/middleware"
)

// AuthHandler serves registration, login, OAuth2 provisioning and the
// administrative re-key operation.
type AuthHandler struct {
	authSvc     *auth.Service
	provisioner *provision.Service
	tokens      *auth.TokenService
	log         *logger.Logger
}

// NewAuthHandler creates the handler.
func NewAuthHandler(authSvc *auth.Service, provisioner *provision.Service, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{
		authSvc:     authSvc,
		provisioner: provisioner,
		tokens:      tokens,
		log:         logger.WithComponent("authhandler"),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var cred auth.Credential
	if err := c.ShouldBindJSON(&cred); err != nil {
		RespondWithError(c, apperrors.InvalidInput("invalid data: "+err.Error()))
		return
	}

	h.log.Info("registering new user", map[string]interface{}{"login": cred.Login})

	userID, err := h.authSvc.Register(c.Request.Context(), cred)
	if err != nil {
		if database.IsDuplicate(err) {
			RespondWithError(c, apperrors.Conflict("A user with this login or email already exists"))
			return
		}
		RespondWithError(c, err)
		return
	}

	RespondCreated(c, gin.H{
		"id":      userID,
		"message": fmt.Sprintf("User with login %s has been created", cred.Login),
	})
}

// loginRequest is the login/secret pair presented at the login endpoint.
type loginRequest struct {
	Login  string `json:"login" binding:"required"`
	Secret string `json:"password" binding:"required"`
}

// loginResponse carries the issued session token.
type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("invalid data: "+err.Error()))
		return
	}

	cred := auth.Credential{Login: req.Login, Secret: req.Secret}
	if !h.authSvc.VerifyCredential(c.Request.Context(), cred) {
		h.log.Info("login rejected", map[string]interface{}{"login": req.Login})
		middleware.Unauthorized(c, "User does not exist or invalid password")
		return
	}

	token, err := h.authSvc.IssueSessionToken(req.Login)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	h.authSvc.RecordLogin(c.Request.Context(), req.Login)

	h.log.Info("login succeeded", map[string]interface{}{"login": req.Login})
	RespondOK(c, loginResponse{Token: token})
}

// oauthCallbackRequest is the resolved identity delivered by the OAuth2
// front-channel once the provider exchange has completed.
type oauthCallbackRequest struct {
	Subject     string         `json:"subject" binding:"required"`
	Attributes  map[string]any `json:"attributes" binding:"required"`
	AccessToken string         `json:"accessToken"`
}

// OAuthCallback handles POST /auth/oauth/:provider.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	var req oauthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("invalid data: "+err.Error()))
		return
	}

	identity := &provision.ExternalIdentity{
		Provider:    c.Param("provider"),
		Subject:     req.Subject,
		Attributes:  req.Attributes,
		AccessToken: req.AccessToken,
	}

	resolved, err := h.provisioner.Provision(c.Request.Context(), identity)
	if err != nil {
		if errors.Is(err, provision.ErrEmailFetch) {
			RespondWithError(c, apperrors.UpstreamFailure("Unable to resolve provider email", err))
			return
		}
		RespondWithError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"provider": resolved.Provider,
		"subject":  resolved.Subject,
	})
}

// rekeyRequest carries the replacement signing secret.
type rekeyRequest struct {
	Secret string `json:"secret" binding:"required,min=32"`
}

// Rekey handles POST /admin/rekey. The caller must hold the admin role;
// the swap invalidates every outstanding session token.
func (h *AuthHandler) Rekey(c *gin.Context) {
	login, _ := authctx.Login(c.Request.Context())
	if !h.authSvc.HasRole(c.Request.Context(), login, auth.AdminRole) {
		RespondWithError(c, apperrors.Forbidden("Administrator role required"))
		return
	}

	var req rekeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, apperrors.InvalidInput("invalid data: "+err.Error()))
		return
	}

	if err := h.tokens.Rekey(req.Secret); err != nil {
		RespondWithError(c, apperrors.InvalidInput(err.Error()))
		return
	}

	h.log.Warn("signing secret rotated", map[string]interface{}{"by": login})
	c.Status(http.StatusNoContent)
}
