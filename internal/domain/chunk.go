package domain

// ChunkType tags a StreamChunk. No other variants exist; any provider payload
// must be translated into one of these before it reaches the orchestrator.
type ChunkType string

const (
	ChunkDelta ChunkType = "delta"
	ChunkDone  ChunkType = "done"
	ChunkError ChunkType = "error"
)

// StreamChunk is the canonical output unit of a streaming backend adapter.
// Content is set for delta chunks, ErrMessage for error chunks.
type StreamChunk struct {
	Type       ChunkType
	Content    string
	ErrMessage string
}

// DeltaChunk builds a delta chunk carrying incremental content.
func DeltaChunk(content string) StreamChunk {
	return StreamChunk{Type: ChunkDelta, Content: content}
}

// DoneChunk builds the terminal success chunk. Adapters must perform any
// finalization side effects before sending it.
func DoneChunk() StreamChunk {
	return StreamChunk{Type: ChunkDone}
}

// ErrorChunk builds the terminal error chunk.
func ErrorChunk(message string) StreamChunk {
	return StreamChunk{Type: ChunkError, ErrMessage: message}
}
