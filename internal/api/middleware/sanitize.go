package middleware

import (
	"net/http"
	"strings"

	"github.com/anishLS3/Placify-sub001/internal/util"
)

const maxLoggedValue = 200

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"proxy-authorization": true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"x-forwarded-for":     true,
	"sec-websocket-key":   true,
}

// SanitizeHeaders returns a copy of h that is safe to log. Credentials and
// client addresses are redacted; other values are cleaned and truncated.
func SanitizeHeaders(h http.Header) map[string][]string {
	if h == nil {
		return nil
	}
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		if sensitiveHeaders[strings.ToLower(k)] {
			out[k] = []string{"<redacted>"}
			continue
		}
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			clean = append(clean, util.Truncate(util.SanitizeForLog(v), maxLoggedValue))
		}
		out[k] = clean
	}
	return out
}

// SanitizePath strips the query string, which may carry a websocket token,
// and cleans the remaining path for logging.
func SanitizePath(p string) string {
	if i := strings.IndexByte(p, '?'); i != -1 {
		p = p[:i]
	}
	return util.Truncate(util.SanitizeForLog(p), maxLoggedValue)
}

// SanitizeUserAgent cleans a user agent before it is stored in the audit trail.
func SanitizeUserAgent(ua string) string {
	return util.Truncate(util.SanitizeForLog(ua), 512)
}
