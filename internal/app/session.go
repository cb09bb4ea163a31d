package app

import "net/http"

type sessionKey string

const (
	SessionKeyUserId = sessionKey("userID")
	SessionKeyGuest  = sessionKey("guest")
)

func (s sessionKey) String() string {
	return string(s)
}

// contextGetUserId returns the logged-in user, or nil for guest checkouts.
func (app *Application) contextGetUserId(r *http.Request) *int {
	userId := app.sessionManager.GetInt(r.Context(), SessionKeyUserId.String())
	if userId == 0 {
		return nil
	}

	return &userId
}
