package metadata

// --- SQLite Keys ---
// These keys are used for the 'key' column in the 'metadata' SQLite table.
const (
	// RoundsCreatedKey counts every round ever created, including rounds that
	// were later cancelled or swept. The frontend uses it to derive fresh
	// round identifiers.
	RoundsCreatedKey = "rounds_created"

	// RoundsResolvedKey counts rounds that reached a successful resolution.
	RoundsResolvedKey = "rounds_resolved"

	// RoundsCancelledKey counts rounds cancelled by their creator.
	RoundsCancelledKey = "rounds_cancelled"

	// CaptionsSubmittedKey counts accepted caption submissions.
	CaptionsSubmittedKey = "captions_submitted"
)

// CounterKeys lists every counter that must exist as a row before the first
// atomic increment runs against it.
var CounterKeys = []string{
	RoundsCreatedKey,
	RoundsResolvedKey,
	RoundsCancelledKey,
	CaptionsSubmittedKey,
}
