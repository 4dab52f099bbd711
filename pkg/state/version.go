package state

// Version information for the state module.
const (
	// Version is the current version of the state module. 2.0.0 stores
	// the reconstruction carry in carry.json.
	Version = "2.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "2.0.0"
)
