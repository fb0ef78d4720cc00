package telegram

import "html"

// EscapeHTML makes user-controlled text (titles, usernames) safe inside an
// HTML parse_mode message.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}
