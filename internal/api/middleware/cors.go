package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS returns a CORS middleware. Allowed origins are exact origins, "*", or
// "*.domain" to admit any subdomain of a tenant website. Only exact and
// "*.domain" matches are echoed back with credentials; "*" stays anonymous.
func CORS(allowOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if credentialed := originMatched(origin, allowOrigins); credentialed || originAllowed(origin, allowOrigins) {
			if credentialed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Access-Control-Allow-Credentials", "true")
				c.Header("Vary", "Origin")
			} else {
				c.Header("Access-Control-Allow-Origin", "*")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(origin string, allowOrigins []string) bool {
	for _, o := range allowOrigins {
		if o == "*" {
			return true
		}
	}
	return originMatched(origin, allowOrigins)
}

// originMatched reports an exact or "*.domain" match, never the bare wildcard
func originMatched(origin string, allowOrigins []string) bool {
	if origin == "" {
		return false
	}
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	for _, o := range allowOrigins {
		switch {
		case o == origin:
			return true
		case strings.HasPrefix(o, "*.") && len(o) > 2:
			domain := o[2:]
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return true
			}
		}
	}
	return false
}
