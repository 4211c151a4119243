package chi

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// publicPaths bypass authentication.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

var (
	errMissingAuth = errors.New("missing authorization header")
	errAuthScheme  = errors.New("authorization header must use Bearer scheme")
)

// BearerAuth returns a middleware that accepts requests carrying one of
// apiKeys as a Bearer token. With no non-empty keys it is a pass-through.
func BearerAuth(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, err.Error())
				return
			}
			if !knownKey(keys, token) {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", errMissingAuth
	}
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return "", errAuthScheme
	}
	return token, nil
}

func knownKey(keys [][]byte, token string) bool {
	t := []byte(token)
	for _, k := range keys {
		if subtle.ConstantTimeCompare(k, t) == 1 {
			return true
		}
	}
	return false
}
