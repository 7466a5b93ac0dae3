package http

import (
	"errors"
	"net/http"

	"github.com/mcpgate/mcpgate/pkg/oauthx"
	"github.com/mcpgate/mcpgate/pkg/slogx"
)

// writeOAuthError maps a service error to the wire. Client-facing failures
// travel as *oauthx.Error and are written as-is; anything else is an internal
// fault logged and masked as server_error.
func writeOAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var oauthErr *oauthx.Error
	if errors.As(err, &oauthErr) {
		oauthErr.WriteError(w)
		return
	}

	slogx.FromContext(r.Context()).Error("request failed", "error", err, "path", r.URL.Path)
	oauthx.ErrServerError.WriteError(w)
}
