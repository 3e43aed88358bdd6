package google

// CalendarScopes are the OAuth scopes the calendar gateway needs: full
// calendar access plus the user's email for identity.
var CalendarScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/calendar",
}
