package workflows

import "chatquery/internal/models"

type IngestFileInput struct {
	Path           string `json:"path"`
	Filename       string `json:"filename"`
	Collection     string `json:"collection"`
	ChunkThreshold int    `json:"chunk_threshold,omitempty"`
}

type IngestProgress struct {
	Filename    string              `json:"filename"`
	Collection  string              `json:"collection"`
	CurrentStep string              `json:"current_step"`
	Status      string              `json:"status"`
	Messages    int                 `json:"messages"`
	Chunks      int                 `json:"chunks"`
	Stored      int                 `json:"stored"`
	Stats       models.MessageStats `json:"stats,omitempty"`
	FailReason  string              `json:"fail_reason,omitempty"`
	Steps       map[string]string   `json:"steps"`
}
