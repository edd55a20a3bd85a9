package flow

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	Prompt  int // User prompt accent
	Topic   int // Record topic labels
	Key     int // Record keys and sequence numbers
	Error   int // Error messages
	Success int // Completion indicators
	Muted   int // Status bar, placeholders, heartbeat info
	CodeBg  int // Code block background
	Accent  int // Headings, links
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Prompt:  4,
		Topic:   6,
		Key:     3,
		Error:   1,
		Success: 2,
		Muted:   8,
		CodeBg:  0,
		Accent:  5,
	}
}
