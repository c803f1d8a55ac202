package clients

// RoundSourceKind selects where round snapshots and cards are read from.
type RoundSourceKind string

const (
	// RoundSourceHTTP reads from the round API over HTTP.
	RoundSourceHTTP RoundSourceKind = "http"

	// RoundSourcePostgres reads the indexer's tables directly.
	RoundSourcePostgres RoundSourceKind = "postgres"
)

// RoundSourceConfig describes a supported source.
type RoundSourceConfig struct {
	Kind        RoundSourceKind `json:"kind"`
	Description string          `json:"description"`
	// Notifies is set when the source can push change notifications.
	Notifies bool `json:"notifies"`
}

// GetRoundSources returns every supported source.
func GetRoundSources() map[RoundSourceKind]RoundSourceConfig {
	return map[RoundSourceKind]RoundSourceConfig{
		RoundSourceHTTP: {
			Kind:        RoundSourceHTTP,
			Description: "Round API over HTTP",
		},
		RoundSourcePostgres: {
			Kind:        RoundSourcePostgres,
			Description: "Indexer database with LISTEN/NOTIFY wake-ups",
			Notifies:    true,
		},
	}
}

// ValidateRoundSource checks if the source is supported
func ValidateRoundSource(kind RoundSourceKind) bool {
	_, ok := GetRoundSources()[kind]
	return ok
}
