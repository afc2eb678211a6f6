package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/eventhub/errors"
	"github.com/kbukum/eventhub/logger"
)

// Recovery returns middleware that turns panics into a 500 AppError response
// and logs the stack. http.ErrAbortHandler is re-raised so the server can
// drop the connection.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithContext(r.Context()).Error("panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
					"path", r.URL.Path,
					"method", r.Method,
				))
				errors.Internal(fmt.Errorf("panic: %v", rec)).WriteHTTP(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
