package middleware

import (
	"github.com/gin-gonic/gin"
)

// The API only serves JSON, so nothing may be framed, sniffed or loaded
var securityHeaders = map[string]string{
	"X-Frame-Options":           "DENY",
	"X-Content-Type-Options":    "nosniff",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
	"Permissions-Policy":        "geolocation=(), microphone=(), camera=()",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
}

// Security adds security headers to responses
func Security() gin.HandlerFunc {
	return func(c *gin.Context) {
		for name, value := range securityHeaders {
			c.Writer.Header().Set(name, value)
		}
		c.Next()
	}
}
