package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const adminRealm = `Basic realm="MystiQ Admin"`

// AdminAuth gates the admin routes behind HTTP basic auth. Only the bcrypt
// hash of the password is held in memory.
type AdminAuth struct {
	username     string
	passwordHash []byte
	logger       *logrus.Logger
}

// NewAdminAuth builds the gate from a bcrypt hash, or hashes password when
// no hash is configured.
func NewAdminAuth(username, password, passwordHash string, logger *logrus.Logger) (*AdminAuth, error) {
	hash := []byte(passwordHash)
	if len(hash) == 0 {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, err
	}

	return &AdminAuth{
		username:     username,
		passwordHash: hash,
		logger:       logger,
	}, nil
}

// Middleware returns a gin middleware handler
func (a *AdminAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", adminRealm)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
		passMatch := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
		if !userMatch || !passMatch {
			a.logger.WithFields(logrus.Fields{
				"request_id": GetRequestID(c),
				"client_ip":  c.ClientIP(),
				"username":   username,
			}).Warn("Admin authentication failed")

			c.Header("WWW-Authenticate", adminRealm)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		c.Set("admin_user", username)
		c.Next()
	}
}
