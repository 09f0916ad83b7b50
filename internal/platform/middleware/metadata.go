package middleware

import (
	"fmt"
	"net/http"

	"github.com/mssola/useragent"

	"heirloom/pkg/requestcontext"
)

// ClientMetadata derives a human-readable device label from the User-Agent
// and records it with the client IP in the request context. Notification
// payloads carry the label so admins can see which device asked for access.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientIP(ctx, clientIP(r))
		if label := deviceLabel(r.UserAgent()); label != "" {
			ctx = requestcontext.WithDeviceLabel(ctx, label)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, _ := ua.Browser()
	os := ua.OS()
	switch {
	case name != "" && os != "":
		return fmt.Sprintf("%s on %s", name, os)
	case name != "":
		return name
	case os != "":
		return os
	default:
		return ""
	}
}
