// Package workflows defines the Temporal workflow driving file ingestion:
// parse, chunk, embed, store, cleanup.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"chatquery/internal/activities"
)

const QueryGetIngestProgress = "GetIngestProgress"

// IngestFileWorkflow runs the ingestion pipeline for one uploaded file. The
// temp file is removed on both the success and failure paths.
func IngestFileWorkflow(ctx workflow.Context, input IngestFileInput) (string, error) {
	progress := IngestProgress{
		Filename:    input.Filename,
		Collection:  input.Collection,
		CurrentStep: "init",
		Status:      "processing",
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetIngestProgress, func() (IngestProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// Failures complete the workflow with result "failed" instead of a
	// workflow error; the reason stays queryable via GetIngestProgress.
	fail := func(step string, err error) (string, error) {
		progress.Status = "failed"
		progress.Steps[step] = "failed"
		progress.FailReason = err.Error()
		cleanup(ctx, input.Path)
		return "failed", nil
	}

	progress.CurrentStep = "parse"
	progress.Steps[progress.CurrentStep] = "processing"
	var parseOut activities.ParseFileOutput
	if err := workflow.ExecuteActivity(ctx, "ParseFileActivity", activities.ParseFileInput{
		Path:     input.Path,
		Filename: input.Filename,
	}).Get(ctx, &parseOut); err != nil {
		return fail("parse", err)
	}
	progress.Messages = len(parseOut.Messages)
	progress.Stats = parseOut.Stats
	progress.Steps["parse"] = "done"

	progress.CurrentStep = "chunk"
	progress.Steps[progress.CurrentStep] = "processing"
	var chunkOut activities.ChunkMessagesOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkMessagesActivity", activities.ChunkMessagesInput{
		Messages:  parseOut.Messages,
		Filename:  input.Filename,
		Threshold: input.ChunkThreshold,
	}).Get(ctx, &chunkOut); err != nil {
		return fail("chunk", err)
	}
	progress.Chunks = len(chunkOut.Chunks)
	progress.Steps["chunk"] = "done"

	progress.CurrentStep = "embed"
	progress.Steps[progress.CurrentStep] = "processing"
	var embedOut activities.EmbedChunksOutput
	if err := workflow.ExecuteActivity(ctx, "EmbedChunksActivity", activities.EmbedChunksInput{
		Chunks: chunkOut.Chunks,
	}).Get(ctx, &embedOut); err != nil {
		return fail("embed", err)
	}
	progress.Steps["embed"] = "done"

	progress.CurrentStep = "store"
	progress.Steps[progress.CurrentStep] = "processing"
	var storeOut activities.StoreChunksOutput
	if err := workflow.ExecuteActivity(ctx, "StoreChunksActivity", activities.StoreChunksInput{
		Collection: input.Collection,
		Chunks:     chunkOut.Chunks,
		Vectors:    embedOut.Vectors,
	}).Get(ctx, &storeOut); err != nil {
		return fail("store", err)
	}
	progress.Stored = storeOut.Stored
	progress.Steps["store"] = "done"

	progress.CurrentStep = "cleanup"
	cleanup(ctx, input.Path)
	progress.Steps["cleanup"] = "done"
	progress.CurrentStep = "done"
	progress.Status = "completed"
	return "completed", nil
}

// cleanup removes the uploaded temp file with a short timeout and no retries
// beyond the default. Errors are swallowed: a leaked temp file must not flip
// an otherwise successful ingestion to failed.
func cleanup(ctx workflow.Context, path string) {
	cleanupCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 2},
	})
	_ = workflow.ExecuteActivity(cleanupCtx, "CleanupFileActivity", activities.CleanupFileInput{
		Path: path,
	}).Get(cleanupCtx, nil)
}
