package mode

// Mode is the query evaluation strategy.
type Mode string

// Evaluation mode constants.
const (
	// Boolean parses the query with NOT > AND > OR precedence and working parentheses.
	Boolean Mode = "boolean"
	// Legacy evaluates strictly left to right and ignores parentheses.
	Legacy Mode = "legacy"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Boolean || m == Legacy
}

// OrDefault returns Boolean for the empty mode.
func (m Mode) OrDefault() Mode {
	if m == "" {
		return Boolean
	}
	return m
}
