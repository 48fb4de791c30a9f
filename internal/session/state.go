package session

// State is the position of a request in the pipeline.
type State int

// Pipeline states. A request moves forward one state at a time and stops at
// SubtitlesGenerated or Failed.
const (
	StateIdle State = iota
	StateVideoReceived
	StateAudioExtracted
	StateTranscribed
	StateSubtitlesGenerated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateVideoReceived:
		return "video_received"
	case StateAudioExtracted:
		return "audio_extracted"
	case StateTranscribed:
		return "transcribed"
	case StateSubtitlesGenerated:
		return "subtitles_generated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
