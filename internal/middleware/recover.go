package middleware

import (
	"log"
	"net/http"

	"github.com/voxlane/callpilot/backend/pkg/utils"
)

// Recover converts handler panics into the JSON 500 shape the API promises
// instead of chi's plain-text response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[http] panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
