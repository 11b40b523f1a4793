package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/JakeFAU/index-submitter/internal/audit"
)

func TestSink_Record_PublishesJSON(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close()

	topic, err := client.CreateTopic(ctx, "submissions")
	require.NoError(t, err)

	sink := New(topic)
	defer sink.Stop()

	rec := audit.Record{
		ID:          "sub-7",
		Host:        "example.com",
		URLCount:    4,
		Success:     false,
		Message:     "Batch Request Error: quota",
		SubmittedAt: time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, sink.Record(ctx, rec))

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "sub-7", msgs[0].Attributes["submission_id"])
	require.Equal(t, "false", msgs[0].Attributes["success"])

	var got audit.Record
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	require.Equal(t, rec.ID, got.ID)
	require.Equal(t, rec.URLCount, got.URLCount)
	require.Equal(t, rec.Message, got.Message)
	require.True(t, rec.SubmittedAt.Equal(got.SubmittedAt))
}

func TestSink_Record_NoTopic(t *testing.T) {
	t.Parallel()

	require.Error(t, New(nil).Record(context.Background(), audit.Record{ID: "x"}))
}
