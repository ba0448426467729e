package models

// ChunkKind classifies indexed text by where it came from.
type ChunkKind string

const (
	ChunkCode          ChunkKind = "code"
	ChunkDocumentation ChunkKind = "documentation"
	ChunkConfig        ChunkKind = "config"
	ChunkTest          ChunkKind = "test"
	ChunkText          ChunkKind = "text"
)

// ChunkUnit tells whether a chunk is a plain window or a whole declaration.
type ChunkUnit string

const (
	UnitWindow   ChunkUnit = "window"
	UnitFunction ChunkUnit = "function"
	UnitMethod   ChunkUnit = "method"
	UnitClass    ChunkUnit = "class"
	UnitType     ChunkUnit = "type"
)

// TextChunk is a bounded slice of file content sent to the semantic index.
type TextChunk struct {
	Content   string    `json:"content"`
	FilePath  string    `json:"file_path"`
	Language  string    `json:"language"`
	Kind      ChunkKind `json:"kind"`
	Unit      ChunkUnit `json:"unit"`
	StartLine int       `json:"start_line"`
	EndLine   int       `json:"end_line"`
	Hash      string    `json:"hash"`
}

// SemanticChunk is a declaration carved out of source code by a language strategy.
type SemanticChunk struct {
	Unit      ChunkUnit
	Name      string
	Content   string
	StartLine int
	EndLine   int
}
