package activities

import "chatquery/internal/models"

type ParseFileInput struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

type ParseFileOutput struct {
	Messages []models.Message    `json:"messages"`
	Stats    models.MessageStats `json:"stats"`
}

type ChunkMessagesInput struct {
	Messages  []models.Message `json:"messages"`
	Filename  string           `json:"filename"`
	Threshold int              `json:"threshold,omitempty"`
}

type ChunkMessagesOutput struct {
	Chunks []models.Chunk `json:"chunks"`
}

type EmbedChunksInput struct {
	Chunks []models.Chunk `json:"chunks"`
}

type EmbedChunksOutput struct {
	Vectors [][]float32 `json:"vectors"`
}

type StoreChunksInput struct {
	Collection string         `json:"collection"`
	Chunks     []models.Chunk `json:"chunks"`
	Vectors    [][]float32    `json:"vectors"`
}

type StoreChunksOutput struct {
	Stored int `json:"stored"`
}

type CleanupFileInput struct {
	Path string `json:"path"`
}
