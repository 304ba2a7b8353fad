package domain

// тип проверки

type CheckType string

const (
	CheckTypeCredentials CheckType = "credentials"
	CheckTypeProcess     CheckType = "process"
	CheckTypeActivity    CheckType = "activity"
)

// Причины провала проверки. Каждая пишется в журнал отдельной строкой.

type FailureReason string

const (
	ReasonNone FailureReason = ""

	ReasonReadError      FailureReason = "read_error"
	ReasonMissing        FailureReason = "missing"
	ReasonAuthTokenShort FailureReason = "auth_token_short"
	ReasonCT0Short       FailureReason = "ct0_short"

	ReasonQueryFailed FailureReason = "query_failed"
	ReasonNotRunning  FailureReason = "not_running"

	ReasonNoLogFound FailureReason = "no_log_found"
	ReasonStale      FailureReason = "stale"
)

// Ключи файла с куками
const (
	KeyAuthToken = "TWITTER_COOKIES_AUTH_TOKEN"
	KeyCT0       = "TWITTER_COOKIES_CT0"
)
