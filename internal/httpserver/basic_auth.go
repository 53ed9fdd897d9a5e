package httpserver

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"habitgrid/pkg/config"
)

const basicRealm = `Basic realm="Habit App"`

// BasicAuthMiddleware gates every request behind HTTP basic auth. When the
// credential pair is not fully configured all requests pass through.
func BasicAuthMiddleware(cfg config.AuthConfig, logger *zap.Logger) gin.HandlerFunc {
	if !cfg.Enabled() {
		logger.Warn("Basic auth credentials not configured, requests are unauthenticated")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		user, pass, ok := parseBasicAuth(c.GetHeader("Authorization"))
		if !ok || !checkCredentials(cfg, user, pass) {
			c.Header("WWW-Authenticate", basicRealm)
			c.String(http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

// parseBasicAuth decodes "Basic base64(user:pass)". The password is
// everything after the first colon.
func parseBasicAuth(header string) (user, pass string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", false
	}
	user, pass, ok = strings.Cut(string(decoded), ":")
	return user, pass, ok
}

func checkCredentials(cfg config.AuthConfig, user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.User)) == 1
	var passOK bool
	if cfg.Password != "" {
		passOK = subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
	} else {
		passOK = bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(pass)) == nil
	}
	return userOK && passOK
}
