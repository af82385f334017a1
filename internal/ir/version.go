package ir

// Version constants for the entity model and engine.
const (
	// SchemaVersion is the entity model version, reported by --version.
	SchemaVersion = "1"

	// EngineVersion is the sheetview engine version.
	EngineVersion = "0.1.0"
)
