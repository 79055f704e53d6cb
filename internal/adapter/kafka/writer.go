package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/config"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

// ArtifactEvent announces a file written by a pipeline stage.
type ArtifactEvent struct {
	RunID      string    `json:"run_id"`
	Stage      string    `json:"stage"`
	Kind       string    `json:"kind"`
	Path       string    `json:"path"`
	LandCover  int       `json:"lc,omitempty"`
	WindowSize int       `json:"window_size,omitempty"`
	Region     string    `json:"region,omitempty"`
	Rows       int       `json:"rows"`
	WrittenAt  time.Time `json:"written_at"`
}

// messageWriter is the subset of kafka-go's Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes artifact events to a Kafka topic.
// It implements pipeline.Notifier.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured artifact topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Notify publishes one event per artifact in a single WriteMessages call.
func (w *Writer) Notify(ctx context.Context, runID, stage string, artifacts []artifact.Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	now := domain.Now().UTC()
	msgs := make([]kafkago.Message, len(artifacts))
	for i, a := range artifacts {
		msg, err := serializeToMessage(newEvent(runID, stage, a, now))
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d artifact events: %w", len(msgs), err)
	}
	w.logger.Debug("artifact events published", "stage", stage, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func newEvent(runID, stage string, a artifact.Artifact, at time.Time) ArtifactEvent {
	return ArtifactEvent{
		RunID:      runID,
		Stage:      stage,
		Kind:       string(a.Kind),
		Path:       a.Path,
		LandCover:  int(a.LandCover),
		WindowSize: a.WindowSize,
		Region:     a.Region,
		Rows:       a.Rows,
		WrittenAt:  at,
	}
}

// serializeToMessage marshals an ArtifactEvent into a Kafka message keyed by
// path, so events for the same file land on the same partition.
func serializeToMessage(event ArtifactEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize artifact event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Path),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(event.Kind)},
			{Key: "run_id", Value: []byte(event.RunID)},
			{Key: "written_at", Value: []byte(event.WrittenAt.Format(time.RFC3339))},
		},
	}, nil
}
