package metadata

// These keys are used for the 'key' column in the 'metadata' table.
const (
	// LastSnapshotAtKey stores the RFC3339 time of the last successful snapshot.
	LastSnapshotAtKey = "last_snapshot_at"

	// SnapshotRecordCountKey stores how many records the last snapshot contained.
	SnapshotRecordCountKey = "snapshot_record_count"
)
