package handlers

import (
	"html/template"
	"net/http"
)

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="csrf-token" content="{{.CSRFToken}}">
  <title>{{.Title}}</title>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{if .IsLoggedIn}}
  <p>Signed in as {{with .User}}{{if .DisplayName}}{{.DisplayName}}{{else}}{{.Email}}{{end}}{{end}}</p>
  <form method="post" action="/logout" id="logout">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <button type="submit">Log out</button>
  </form>
  {{else}}
  <form method="post" action="/login" id="login">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <label>Username <input name="username" autocomplete="username"></label>
    <label>Password <input type="password" name="password" autocomplete="current-password"></label>
    <button type="submit">Log in</button>
  </form>
  {{with .LoginError}}<p class="error">{{.}}</p>{{end}}
  <ul>
    {{range .Providers}}<li><a href="/auth/{{.}}/start">Sign in with {{.}}</a></li>{{end}}
  </ul>
  {{end}}
</body>
</html>
`))

// Home renders the landing page with the session state
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrf.GenerateToken(ensureClientID(w, r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to generate CSRF token", err)
		return
	}

	state := h.currentState()
	data := HomeViewData{
		Title:      "NauczSie",
		User:       state.User,
		IsLoggedIn: state.IsLoggedIn,
		CSRFToken:  token,
	}
	if !state.IsLoggedIn && r.URL.Query().Get(loginErrorParam) == "failed" {
		data.LoginError = "Invalid username or password"
	}
	if h.completer != nil && h.provider != "" {
		data.Providers = []string{h.provider}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering home page", err)
	}
}
