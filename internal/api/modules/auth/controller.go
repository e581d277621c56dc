package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/face2phrase/backend/internal/stores/users"
	"github.com/face2phrase/backend/pkg/sdk"
)

var (
	store  *users.Store
	tokens *users.TokenIssuer
)

// Attach the user store and token issuer the module runs off of
func Init(s *users.Store, t *users.TokenIssuer) {
	store = s
	tokens = t
}

func getStore() *users.Store {
	if store == nil {
		log.Fatal("[AUTH]: Auth module is not initialized")
	}
	return store
}

// Register handles POST requests to create a new user account
func Register(c *gin.Context) {
	// Parse request body
	var req sdk.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	user, err := getStore().Create(req.Username, req.Password, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			c.JSON(sdk.NewErrorResponse(http.StatusConflict, "Username already registered", err).AsGinResponse())
			return
		}
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to create user", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("User registered successfully", toUserResponse(user)).AsGinResponse())
}

// Login handles POST requests to exchange credentials for an access token
func Login(c *gin.Context) {
	// Parse request body
	var req sdk.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err).AsGinResponse())
		return
	}

	user, err := getStore().Authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Invalid username or password", err).AsGinResponse())
		return
	}

	token, err := tokens.CreateToken(user.Username)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to issue token", err).AsGinResponse())
		return
	}

	resp := sdk.TokenResponse{AccessToken: token, TokenType: "bearer"}
	c.JSON(sdk.NewSuccessResponse("Login successful", resp).AsGinResponse())
}

// Me handles GET requests for the account behind the bearer token
func Me(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Missing bearer token", nil).AsGinResponse())
		return
	}

	username, err := tokens.VerifyToken(token)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Could not validate credentials", err).AsGinResponse())
		return
	}

	user, err := getStore().Get(username)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusUnauthorized, "Could not validate credentials", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("User retrieved successfully", toUserResponse(user)).AsGinResponse())
}

// bearerToken pulls the token out of the Authorization header
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

// Helper method to convert an internal user to its public view
func toUserResponse(user *users.User) sdk.UserResponse {
	return sdk.UserResponse{
		Username:  user.Username,
		FullName:  user.FullName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		IsActive:  user.IsActive,
	}
}
