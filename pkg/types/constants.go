package types

const (
	// MaxInputChars caps the input capture stored with every history entry.
	MaxInputChars = 1000
	// MaxOutputChars caps the output capture stored with every history entry.
	MaxOutputChars = 2000

	// DefaultListLimit is used when a list request does not set a limit.
	DefaultListLimit = 10
	// MaxListLimit is the largest page the backend will return.
	MaxListLimit = 100

	// FreeVisibleEntries is how many entries a non-PRO user sees before "show all".
	FreeVisibleEntries = 3
)
