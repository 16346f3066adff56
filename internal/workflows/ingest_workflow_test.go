package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"chatquery/internal/activities"
	"chatquery/internal/models"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func newIngestEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(IngestFileWorkflow)
	registerActivityName(env, "ParseFileActivity", func(context.Context, activities.ParseFileInput) (activities.ParseFileOutput, error) {
		return activities.ParseFileOutput{}, nil
	})
	registerActivityName(env, "ChunkMessagesActivity", func(context.Context, activities.ChunkMessagesInput) (activities.ChunkMessagesOutput, error) {
		return activities.ChunkMessagesOutput{}, nil
	})
	registerActivityName(env, "EmbedChunksActivity", func(context.Context, activities.EmbedChunksInput) (activities.EmbedChunksOutput, error) {
		return activities.EmbedChunksOutput{}, nil
	})
	registerActivityName(env, "StoreChunksActivity", func(context.Context, activities.StoreChunksInput) (activities.StoreChunksOutput, error) {
		return activities.StoreChunksOutput{}, nil
	})
	registerActivityName(env, "CleanupFileActivity", func(context.Context, activities.CleanupFileInput) error { return nil })
	return env
}

func TestIngestFileWorkflowSuccess(t *testing.T) {
	env := newIngestEnv(t)

	msgs := []models.Message{
		{SourceKind: models.SourceChatLine, Sender: "Alice", Text: "Hello", Timestamp: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)},
		{SourceKind: models.SourceChatLine, Sender: "Bob", Text: "Hi there", Timestamp: time.Date(2024, 2, 1, 10, 0, 5, 0, time.UTC)},
	}
	chunks := []models.Chunk{{Content: "[Alice]: Hello [Bob]: Hi there", Metadata: models.ChunkMetadata{Sender: "Bob"}}}

	env.OnActivity("ParseFileActivity", mock.Anything, activities.ParseFileInput{Path: "/tmp/chat.txt", Filename: "chat.txt"}).
		Return(activities.ParseFileOutput{Messages: msgs}, nil)
	env.OnActivity("ChunkMessagesActivity", mock.Anything, mock.Anything).
		Return(activities.ChunkMessagesOutput{Chunks: chunks}, nil)
	env.OnActivity("EmbedChunksActivity", mock.Anything, activities.EmbedChunksInput{Chunks: chunks}).
		Return(activities.EmbedChunksOutput{Vectors: [][]float32{{0.1, 0.2}}}, nil)
	env.OnActivity("StoreChunksActivity", mock.Anything, mock.Anything).
		Return(activities.StoreChunksOutput{Stored: 1}, nil)
	env.OnActivity("CleanupFileActivity", mock.Anything, activities.CleanupFileInput{Path: "/tmp/chat.txt"}).
		Return(nil).Once()

	env.ExecuteWorkflow(IngestFileWorkflow, IngestFileInput{Path: "/tmp/chat.txt", Filename: "chat.txt", Collection: "chat"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "completed", out)

	val, err := env.QueryWorkflow(QueryGetIngestProgress)
	require.NoError(t, err)
	var progress IngestProgress
	require.NoError(t, val.Get(&progress))
	require.Equal(t, "completed", progress.Status)
	require.Equal(t, 2, progress.Messages)
	require.Equal(t, 1, progress.Chunks)
	require.Equal(t, 1, progress.Stored)
	env.AssertExpectations(t)
}

func TestIngestFileWorkflowParseFailureCleansUp(t *testing.T) {
	env := newIngestEnv(t)

	env.OnActivity("ParseFileActivity", mock.Anything, mock.Anything).
		Return(activities.ParseFileOutput{}, errors.New("parse chat.txt: no extractable content"))
	env.OnActivity("CleanupFileActivity", mock.Anything, activities.CleanupFileInput{Path: "/tmp/chat.txt"}).
		Return(nil).Once()

	env.ExecuteWorkflow(IngestFileWorkflow, IngestFileInput{Path: "/tmp/chat.txt", Filename: "chat.txt", Collection: "chat"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out)

	val, err := env.QueryWorkflow(QueryGetIngestProgress)
	require.NoError(t, err)
	var progress IngestProgress
	require.NoError(t, val.Get(&progress))
	require.Equal(t, "failed", progress.Status)
	require.Contains(t, progress.FailReason, "no extractable content")
	env.AssertExpectations(t)
}

func TestIngestFileWorkflowStoreFailureCleansUp(t *testing.T) {
	env := newIngestEnv(t)

	env.OnActivity("ParseFileActivity", mock.Anything, mock.Anything).
		Return(activities.ParseFileOutput{Messages: []models.Message{{Text: "hi"}}}, nil)
	env.OnActivity("ChunkMessagesActivity", mock.Anything, mock.Anything).
		Return(activities.ChunkMessagesOutput{Chunks: []models.Chunk{{Content: "hi"}}}, nil)
	env.OnActivity("EmbedChunksActivity", mock.Anything, mock.Anything).
		Return(activities.EmbedChunksOutput{Vectors: [][]float32{{0.1}}}, nil)
	env.OnActivity("StoreChunksActivity", mock.Anything, mock.Anything).
		Return(activities.StoreChunksOutput{}, errors.New("connection refused"))
	env.OnActivity("CleanupFileActivity", mock.Anything, mock.Anything).
		Return(nil).Once()

	env.ExecuteWorkflow(IngestFileWorkflow, IngestFileInput{Path: "/tmp/chat.txt", Filename: "chat.txt", Collection: "chat"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out)
	env.AssertExpectations(t)
}
