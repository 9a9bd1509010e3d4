package auth

import "github.com/gobwas/glob"

// OriginIsAllowed reports whether the request origin matches any of the
// allowed origin patterns. A pattern is either an exact origin or a glob
// such as "https://*.example.com".
func OriginIsAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return false
	}
	for _, pattern := range allowedOrigins {
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		if g.Match(origin) {
			return true
		}
	}
	return false
}
