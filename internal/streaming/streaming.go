// Package streaming provides best-effort telemetry streaming over Kinesis,
// grounded on job-service/internal/kinesis/streamer.go: marshal, PutRecord,
// log on failure, never block the caller.
package streaming

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/kinesis"
)

// Streamer publishes named events to a single Kinesis stream.
type Streamer struct {
	client     *kinesis.Client
	streamName string
}

// New wraps an already-configured kinesis.Client.
func New(client *kinesis.Client, streamName string) *Streamer {
	return &Streamer{client: client, streamName: streamName}
}

// StreamEvent marshals payload and fires it at the stream asynchronously.
// Exactly like job-service's StreamJobEvent, a failure is logged and
// otherwise swallowed: the simulation's virtual clock never waits on this.
func (s *Streamer) StreamEvent(name string, partitionKey string, payload any) {
	body, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: name, Data: payload})
	if err != nil {
		slog.Error("marshal stream event failed", "event", name, "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := s.client.PutRecord(ctx, &kinesis.PutRecordInput{
			StreamName:   &s.streamName,
			Data:         body,
			PartitionKey: &partitionKey,
		})
		if err != nil {
			slog.Error("kinesis put record failed", "event", name, "error", err)
		}
	}()
}
