package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attempt-grading-service/internal/config"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

// GradingCallbackHeader marks a launch whose grade must be passed back to the LMS
const GradingCallbackHeader = "X-Grading-Callback"

// TokenParser verifies a bearer token. *casdoorsdk.Client satisfies it.
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorAuthMiddleware authenticates requests and builds the caller's UserSession
type CasdoorAuthMiddleware struct {
	parser TokenParser
	lti    config.LTIConfig
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, lti config.LTIConfig) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Application,
		cfg.Organization,
	)
	return NewAuthMiddlewareWithParser(client, lti)
}

func NewAuthMiddlewareWithParser(parser TokenParser, lti config.LTIConfig) *CasdoorAuthMiddleware {
	return &CasdoorAuthMiddleware{parser: parser, lti: lti}
}

// AuthMiddleware returns a Gin middleware function for Casdoor authentication
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "authorization header missing",
			})
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "invalid authorization header format",
			})
			return
		}

		claims, err := cam.parser.ParseJwtToken(tokenParts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("invalid token: %v", err),
			})
			return
		}

		user, err := userFromClaims(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("failed to extract user info: %v", err),
			})
			return
		}

		SetSession(c, user, cam.sessionFor(c, user))
		c.Next()
	}
}

// RequireRole checks if user has required role. Admins always pass.
func RequireRole(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": err.Error(),
			})
			return
		}

		for _, requiredRole := range requiredRoles {
			if role == requiredRole || role == models.RoleAdmin {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
		})
	}
}

// sessionFor adds the LTI launch context carried alongside the token
func (cam *CasdoorAuthMiddleware) sessionFor(c *gin.Context, user *models.User) models.UserSession {
	session := models.UserSession{
		UserID:        user.ID,
		Role:          user.Role,
		GradeEndpoint: cam.lti.GradeEndpoint,
	}
	if v, err := strconv.ParseBool(c.GetHeader(GradingCallbackHeader)); err == nil {
		session.GradingCallbackRequired = v
	}
	if cookie, err := c.Cookie(cam.lti.CookieName); err == nil {
		session.AuthCookie = cookie
	}
	return session
}

func userFromClaims(claims *casdoorsdk.Claims) (*models.User, error) {
	if claims == nil || claims.Id == "" {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	role := mapCasdoorRoleToUserRole(claims.User.Type)
	if claims.User.IsAdmin {
		role = models.RoleAdmin
	}

	return &models.User{
		ID:       claims.Id,
		FullName: claims.User.DisplayName,
		Email:    claims.User.Email,
		Role:     role,
	}, nil
}

// mapCasdoorRoleToUserRole maps Casdoor user type to internal role
func mapCasdoorRoleToUserRole(casdoorType string) models.UserRole {
	switch strings.ToLower(casdoorType) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "author", "teacher", "instructor", "educator":
		return models.RoleAuthor
	default:
		return models.RoleLearner
	}
}

// ===== CONTEXT ACCESSORS =====

// SetSession stores the caller in the Gin context
func SetSession(c *gin.Context, user *models.User, session models.UserSession) {
	c.Set("user_id", user.ID)
	c.Set("user", user)
	c.Set("user_role", user.Role)
	c.Set("session", session)
}

func GetSessionFromContext(c *gin.Context) (models.UserSession, error) {
	value, exists := c.Get("session")
	if !exists {
		return models.UserSession{}, fmt.Errorf("session not found in context")
	}
	session, ok := value.(models.UserSession)
	if !ok {
		return models.UserSession{}, fmt.Errorf("invalid session type in context")
	}
	return session, nil
}

func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
