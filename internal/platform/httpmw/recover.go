package httpmw

import (
	"net/http"
	"runtime/debug"

	"marketplace-gateway/internal/platform/respond"

	"go.uber.org/zap"
)

// Recover is the terminal fault handler: any panic below it becomes a generic
// 500 envelope. Fault details stay in the server log and never reach the
// client.
func Recover(log *zap.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				log.Error("panic recovered",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", v),
					zap.ByteString("stack", debug.Stack()),
				)
				respond.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
