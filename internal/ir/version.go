package ir

// Version constants for journal records and the engine.
const (
	// JournalVersion is the journal record schema version.
	JournalVersion = "1"

	// EngineVersion is the replacer engine version.
	EngineVersion = "0.1.0"
)
