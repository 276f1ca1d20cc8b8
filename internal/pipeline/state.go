package pipeline

// State is the orchestrator's position in one indexing cycle.
type State int

const (
	StateIdle State = iota
	StateSyncing
	StateChunking
	StateEmbedding
	StateBuilding
	StatePublishing
	StateAborted
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateChunking:
		return "chunking"
	case StateEmbedding:
		return "embedding"
	case StateBuilding:
		return "building"
	case StatePublishing:
		return "publishing"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}
