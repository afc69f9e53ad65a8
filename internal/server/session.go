package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie carries the session token for browser navigation.
	SessionCookie = "fna_session"
	agentKey      = "agent"
)

// Claims identify the agent behind a session token.
type Claims struct {
	Agent string `json:"agent"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for agent with the anon key.
func IssueToken(key, agent string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Agent: agent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   agent,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// ParseToken validates a session token.
func ParseToken(key, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(key), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Agent == "" {
		return nil, errors.New("token has no agent")
	}
	return claims, nil
}

// RequireSession admits requests carrying a valid session token, from the
// Authorization header or the session cookie. Everything else is redirected
// to authURL with the original path in ?next=.
func RequireSession(key, authURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(SessionCookie)
		}
		if token != "" {
			if claims, err := ParseToken(key, token); err == nil {
				c.Set(agentKey, claims.Agent)
				c.Next()
				return
			}
		}
		c.Redirect(http.StatusFound, authRedirect(authURL, c.Request.URL.RequestURI()))
		c.Abort()
	}
}

func bearerToken(h string) string {
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func authRedirect(authURL, next string) string {
	u, err := url.Parse(authURL)
	if err != nil {
		return authURL
	}
	q := u.Query()
	q.Set("next", next)
	u.RawQuery = q.Encode()
	return u.String()
}

// safeNext keeps post-login redirects on this host.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/dashboard"
	}
	return next
}
