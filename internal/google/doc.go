// Package google provides OAuth2 token access for the Google Calendar gateway.
//
// Tokens are obtained outside calmate and stored as JSON-encoded oauth2
// tokens, one file per account. The TokenProvider interface lets other
// token sources be plugged in.
package google
