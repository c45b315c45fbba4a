package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/vesaa/homebuilder/internal/models"
)

// SessionCookie carries the session JWT.
const SessionCookie = "hb_session"

const ctxUserKey = "user"

// Claims is the payload embedded in every session token.
type Claims struct {
	UserID   uint        `json:"uid"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// issueToken creates a signed HS256 JWT for u.
func (s *Server) issueToken(u *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "homebuilder",
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// parseToken validates a token string and returns the claims.
func (s *Server) parseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (s *Server) sessionTTL() time.Duration {
	return time.Duration(s.cfg.SessionTTLHours) * time.Hour
}

// setSession issues a token for u and stores it in the session cookie.
func (s *Server) setSession(c *gin.Context, u *models.User) (string, error) {
	token, err := s.issueToken(u)
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(s.sessionTTL().Seconds()), "/", "", s.cfg.Env == "prod", true)
	return token, nil
}

func clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

// tokenFrom reads the session token from the cookie or an
// "Authorization: Bearer <jwt>" header.
func tokenFrom(c *gin.Context) string {
	if raw := c.GetHeader("Authorization"); raw != "" {
		parts := strings.SplitN(raw, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return v
	}
	return ""
}

// sessionUser resolves the signed-in user, or nil. The account is reloaded
// so deactivated users and role changes take effect immediately.
func (s *Server) sessionUser(c *gin.Context) *models.User {
	raw := tokenFrom(c)
	if raw == "" {
		return nil
	}
	claims, err := s.parseToken(raw)
	if err != nil {
		return nil
	}
	u, err := s.store.ActiveUser(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil
	}
	return u
}

// SessionMiddleware requires a signed-in user and stores it in the Gin
// context. With help mode active, anonymous requests are signed in as an admin.
func (s *Server) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := s.sessionUser(c)
		if u == nil && s.cfg.HelpModeActive() {
			u = s.helpLogin(c)
		}
		if u == nil {
			abortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(ctxUserKey, u)
		c.Next()
	}
}

// RequireRole rejects users whose role is not listed.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		for _, r := range roles {
			if u != nil && u.Role == r {
				c.Next()
				return
			}
		}
		abortWithError(c, ErrForbidden)
	}
}

// currentUser returns the user stored by SessionMiddleware.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
