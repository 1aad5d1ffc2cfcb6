package middleware

import (
	"context"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// DefaultOwnerUID scopes inventory rows when the service runs without
// Firebase auth configured.
const DefaultOwnerUID = "default_user"

type AuthMiddleware struct {
	authClient *auth.Client
}

// NewAuthMiddleware builds the Firebase verifier. An empty projectID returns
// (nil, nil): auth is optional and its absence is a normal deployment mode.
func NewAuthMiddleware(ctx context.Context, projectID string) (*AuthMiddleware, error) {
	if projectID == "" {
		return nil, nil
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{authClient: client}, nil
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")
		token, err := m.authClient.VerifyIDToken(c.Request().Context(), tokenStr)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
		c.Set("uid", token.UID)
		return next(c)
	}
}

// OwnerUID returns the authenticated uid, or DefaultOwnerUID when the route
// ran without the auth middleware attached.
func OwnerUID(c echo.Context) string {
	if uid, _ := c.Get("uid").(string); uid != "" {
		return uid
	}
	return DefaultOwnerUID
}
