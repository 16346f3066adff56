package models

import "time"

// SourceKind identifies where a message was extracted from.
type SourceKind string

const (
	SourceChatLine     SourceKind = "chat_line"
	SourcePDFParagraph SourceKind = "pdf_paragraph"
	SourceDocxPara     SourceKind = "docx_paragraph"
	SourceDocxTableRow SourceKind = "docx_table_row"
	SourcePlainPara    SourceKind = "plain_paragraph"
	SourceSystem       SourceKind = "system"
)

// Locator is a source-kind-specific position inside the original file.
// Fields that do not apply to a kind are left zero.
type Locator struct {
	Page        int `json:"page,omitempty"`
	ParagraphID int `json:"paragraph_id,omitempty"`
	TableID     int `json:"table_id,omitempty"`
	RowID       int `json:"row_id,omitempty"`
}

// Message is one atomic unit of extracted content. Text is always non-empty
// after cleaning; placeholder-only content never becomes a Message.
type Message struct {
	SourceKind SourceKind `json:"source_kind"`
	Sender     string     `json:"sender"`
	Text       string     `json:"text"`
	Timestamp  time.Time  `json:"timestamp"`
	Locator    Locator    `json:"locator"`
}

// ChunkMetadata carries provenance for a chunk. Chunk formation is a greedy
// single pass, so the metadata is that of the last contributing message.
type ChunkMetadata struct {
	SourceKind  SourceKind `json:"source_kind"`
	Sender      string     `json:"sender"`
	Timestamp   time.Time  `json:"timestamp"`
	FileType    string     `json:"file_type,omitempty"`
	Filename    string     `json:"filename,omitempty"`
	Page        int        `json:"page,omitempty"`
	ParagraphID int        `json:"paragraph_id,omitempty"`
	TableID     int        `json:"table_id,omitempty"`
	RowID       int        `json:"row_id,omitempty"`
}

// Chunk is a bounded-size concatenation of formatted message lines.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// SearchResult is one retrieved chunk. Distance is a dissimilarity measure:
// smaller means more similar.
type SearchResult struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// QueryResult is the assembled answer for a query.
type QueryResult struct {
	Answer     string         `json:"answer"`
	Sources    []SearchResult `json:"sources"`
	Confidence float64        `json:"confidence"`
	Query      string         `json:"query"`
}

// CollectionInfo describes a stored collection.
type CollectionInfo struct {
	Name        string    `json:"name"`
	Count       int       `json:"count"`
	LastUpdated time.Time `json:"last_updated"`
}

type ProcessingStatus string

const (
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// MessageStats summarizes a parsed chat export.
type MessageStats struct {
	TotalMessages int       `json:"total_messages"`
	UniqueSenders int       `json:"unique_senders"`
	Senders       []string  `json:"senders"`
	Start         time.Time `json:"start,omitempty"`
	End           time.Time `json:"end,omitempty"`
}
