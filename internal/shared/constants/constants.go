package constants

const (
	// HTTP headers
	HeaderXRequestID = "X-Request-ID"
	HeaderPlexToken  = "X-Plex-Token"
	HeaderAccept     = "Accept"

	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"

	ContextKeyRequestID = "request_id"

	// Table names
	TablePlexUsers     = "plex_users"
	TableSessions      = "sessions"
	TablePlatformStats = "platform_stats"

	// Placeholder values for attributes the media server omitted.
	UnknownValue  = "Unknown"
	UnknownUserID = "0"

	// Report buckets
	BucketHour = "hour"
	BucketDay  = "day"
)
