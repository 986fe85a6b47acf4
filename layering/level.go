package layering

// Level identifies which registry tier produced a configuration entry.
// Higher levels override lower levels when composing.
type Level int

const (
	// LevelUnknown guards against misconfiguration so call sites can detect
	// missing metadata.
	LevelUnknown Level = iota
	// LevelDefault is the type-wide fallback used when neither an ID nor a
	// modifier applies.
	LevelDefault
	// LevelModifier is a group-level tier shared by several consumers.
	LevelModifier
	// LevelID is the strongest tier naming one specific consumer.
	LevelID
)

func (l Level) String() string {
	switch l {
	case LevelDefault:
		return "default"
	case LevelModifier:
		return "modifier"
	case LevelID:
		return "id"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string representation into the corresponding Level.
// Returns LevelUnknown for unrecognised values.
func ParseLevel(value string) Level {
	switch value {
	case "default", "DEFAULT":
		return LevelDefault
	case "modifier", "MODIFIER":
		return LevelModifier
	case "id", "ID":
		return LevelID
	default:
		return LevelUnknown
	}
}

// Levels returns the tiers from strongest to weakest.
func Levels() []Level {
	return []Level{LevelID, LevelModifier, LevelDefault}
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name. Unrecognised names yield LevelUnknown.
func (l *Level) UnmarshalText(text []byte) error {
	*l = ParseLevel(string(text))
	return nil
}
