package http

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/mcpgate/mcpgate/internal/gate/service"
	"github.com/mcpgate/mcpgate/internal/gate/session"
	"github.com/mcpgate/mcpgate/pkg/slogx"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Sign in</title>
  <style>
    body { font-family: system-ui, sans-serif; display: flex; justify-content: center; padding-top: 10vh; background: #f5f5f5; }
    form { background: #fff; padding: 2rem; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.15); width: 320px; }
    h1 { font-size: 1.2rem; margin-top: 0; }
    label { display: block; margin: 1rem 0 .25rem; font-size: .9rem; }
    input { width: 100%; padding: .5rem; box-sizing: border-box; }
    button { margin-top: 1.5rem; width: 100%; padding: .6rem; background: #2563eb; color: #fff; border: 0; border-radius: 4px; cursor: pointer; }
    .error { color: #b91c1c; font-size: .9rem; margin-top: .75rem; }
  </style>
</head>
<body>
  <form method="post" action="/login">
    <h1>Sign in to continue</h1>
    <input type="hidden" name="return_to" value="{{.ReturnTo}}">
    <label for="password">Password</label>
    <input type="password" id="password" name="password" autofocus required>
    {{if .OTPEnabled}}
    <label for="otp_code">Authenticator code</label>
    <input type="text" id="otp_code" name="otp_code" inputmode="numeric" autocomplete="one-time-code">
    {{end}}
    {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
    <button type="submit">Sign in</button>
  </form>
</body>
</html>
`))

type loginPageData struct {
	ReturnTo   string
	OTPEnabled bool
	Error      string
}

// LoginHandler renders and processes the operator login challenge. A
// successful login sets the session cookie and replays the original
// authorize request carried in return_to.
type LoginHandler struct {
	LoginService *service.LoginService
	Sessions     *session.Manager
}

// HandleGet renders the login form.
func (h *LoginHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, loginPageData{
		ReturnTo:   sanitizeReturnTo(r.URL.Query().Get("return_to")),
		OTPEnabled: h.LoginService.OTPEnabled(),
	})
}

// HandlePost checks the credentials, issues the session cookie, and
// redirects to the replayed request.
func (h *LoginHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, loginPageData{
			OTPEnabled: h.LoginService.OTPEnabled(),
			Error:      "Invalid form submission.",
		})
		return
	}

	returnTo := sanitizeReturnTo(r.Form.Get("return_to"))

	amr, err := h.LoginService.Authenticate(ctx, r.Form.Get("password"), strings.TrimSpace(r.Form.Get("otp_code")))
	if err != nil {
		msg := "Invalid credentials."
		if errors.Is(err, service.ErrOTPRequired) {
			msg = "An authenticator code is required."
		}
		h.render(w, http.StatusUnauthorized, loginPageData{
			ReturnTo:   returnTo,
			OTPEnabled: h.LoginService.OTPEnabled(),
			Error:      msg,
		})
		return
	}

	token, err := h.Sessions.Issue(amr, time.Now().UTC())
	if err != nil {
		log.Error("failed to issue session", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.Sessions.SetCookie(w, r, token)

	http.Redirect(w, r, returnTo, http.StatusFound)
}

func (h *LoginHandler) render(w http.ResponseWriter, status int, data loginPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	// Headers are already out, so a render failure can only be dropped.
	_ = loginTemplate.Execute(w, data)
}

// sanitizeReturnTo restricts the replay target to a local path so the login
// form cannot be used as an open redirect. Anything else falls back to the
// authorize endpoint root.
func sanitizeReturnTo(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return "/"
	}
	return raw
}
