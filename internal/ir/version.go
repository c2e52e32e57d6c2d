package ir

// Version constants for the document format and engine.
const (
	// DocumentVersion is the serialized document schema version.
	DocumentVersion = "1"

	// EngineVersion is the WireGraph engine version.
	EngineVersion = "0.1.0"
)
