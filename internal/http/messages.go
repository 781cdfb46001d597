package http

// User-visible failure classes. The UI shows the message and switches on the code.
const (
	MessageStorageUnavailable = "Offline features are unavailable right now."
	MessageContentStale       = "Content may be out of date."
	MessageChangesPending     = "Some changes haven't synced yet."
	MessageSessionExpired     = "Your session has expired. Sign in again to sync."

	CodeStorageUnavailable = "storage_unavailable"
	CodeSyncFailed         = "sync_failed"
	CodeChangesPending     = "changes_pending"
	CodeSessionExpired     = "session_expired"
)
