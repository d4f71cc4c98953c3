package mid

import (
	"context"
	"net/http"

	"github.com/forkline/blockchain/foundation/web"
)

// Cors stamps the response headers needed for cross origin resource sharing
// so browser based wallets and viewers can reach the public API.
func Cors(origin string) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// The headers have to be stamped before the handler writes the
			// status code. Only the methods the public mux serves are
			// advertised.
			hdr := w.Header()
			hdr.Set("Access-Control-Allow-Origin", origin)
			hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			hdr.Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding")

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
