package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	event := ArtifactEvent{
		RunID:      "run-1",
		Stage:      "erode",
		Kind:       "eroded",
		Path:       "/data/LCD_2018_eroded_5_lc_9.parquet",
		LandCover:  9,
		WindowSize: 5,
		Rows:       1200,
		WrittenAt:  now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("/data/LCD_2018_eroded_5_lc_9.parquet"), msg.Key)
	assert.JSONEq(t, `{
		"run_id": "run-1",
		"stage": "erode",
		"kind": "eroded",
		"path": "/data/LCD_2018_eroded_5_lc_9.parquet",
		"lc": 9,
		"window_size": 5,
		"rows": 1200,
		"written_at": "2024-04-26T15:10:00Z"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("eroded"), msg.Headers[0].Value)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestWriter_Notify(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: discardLogger()}

	err := w.Notify(context.Background(), "run-7", "sample", []artifact.Artifact{
		{Kind: artifact.KindSampled, Path: "a.parquet", LandCover: domain.Heather, WindowSize: 5, Rows: 10},
		{Kind: artifact.KindSampled, Path: "b.parquet", LandCover: domain.Bog, WindowSize: 5, Rows: 20},
	})
	require.NoError(t, err)
	require.Len(t, fw.msgs, 2)

	var event ArtifactEvent
	require.NoError(t, json.Unmarshal(fw.msgs[1].Value, &event))
	assert.Equal(t, "run-7", event.RunID)
	assert.Equal(t, "sample", event.Stage)
	assert.Equal(t, 11, event.LandCover)
	assert.Equal(t, 20, event.Rows)
	assert.True(t, fixed.Equal(event.WrittenAt))
}

func TestWriter_NotifyEmpty(t *testing.T) {
	fw := &fakeWriter{err: errors.New("unreachable")}
	w := &Writer{writer: fw, logger: discardLogger()}
	require.NoError(t, w.Notify(context.Background(), "run", "split", nil))
}

func TestWriter_NotifyError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	w := &Writer{writer: fw, logger: discardLogger()}
	err := w.Notify(context.Background(), "run", "split", []artifact.Artifact{{Kind: artifact.KindTile, Path: "t.tif"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
