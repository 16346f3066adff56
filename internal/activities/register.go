package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ParseFileActivity)
	w.RegisterActivity(a.ChunkMessagesActivity)
	w.RegisterActivity(a.EmbedChunksActivity)
	w.RegisterActivity(a.StoreChunksActivity)
	w.RegisterActivity(a.CleanupFileActivity)
}
