package config

// Import pipeline tunables.
const (
	// BatchSize is the fixed chunk size for history inserts. Batches are
	// persisted sequentially in source order, never interleaved.
	BatchSize = 500

	// MaxIDsPerColumn caps how many client ids go into one CSV report
	// column before spilling into a numbered continuation column.
	MaxIDsPerColumn = 500
)

// Report delivery tunables.
const (
	// ReportTimeZone fixes the business-day boundary for report scheduling
	// and report content windows.
	ReportTimeZone = "Asia/Dubai"

	// DailyReportSchedule fires the daily agent report at 06:00 local time.
	DailyReportSchedule = "0 6 * * *"

	// HourlyReportSchedule fires the hourly activity report on the hour.
	HourlyReportSchedule = "0 * * * *"

	// MaxSendRetries bounds the exponential backoff around document
	// delivery to the messaging channel.
	MaxSendRetries = 5

	// TelegramMessageLimit is the per-message character budget; longer
	// report texts are chunked to stay under it.
	TelegramMessageLimit = 4096
)
