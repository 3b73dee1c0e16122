package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

type fakeWriter struct {
	batches [][]kafkago.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, msgs)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testWave(id int) domain.WaveSummary {
	return domain.WaveSummary{
		RunID:      "run-1",
		Dataset:    "extreme_temps_pctile01_pctile99.csv.gz",
		WaveID:     id,
		Location:   "25025",
		Label:      domain.Hot,
		Start:      time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2020, 7, 3, 0, 0, 0, 0, time.UTC),
		Length:     3,
		DetectedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(testWave(7))
	require.NoError(t, err)

	assert.Equal(t, []byte("25025"), msg.Key)
	assert.Contains(t, string(msg.Value), `"extreme":"hot"`)
	assert.Contains(t, string(msg.Value), `"wave_id":7`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "extreme", msg.Headers[0].Key)
	assert.Equal(t, []byte("hot"), msg.Headers[0].Value)
	assert.Equal(t, "run_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[1].Value)
	assert.Equal(t, "detected_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[2].Value)

	var decoded domain.WaveSummary
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, testWave(7), decoded)
}

func TestWavePublisher_LoadWaves_Batches(t *testing.T) {
	fw := &fakeWriter{}
	p := &WavePublisher{writer: fw, logger: slog.Default()}

	waves := make([]domain.WaveSummary, maxBatch+3)
	for i := range waves {
		waves[i] = testWave(i + 1)
	}
	require.NoError(t, p.LoadWaves(context.Background(), waves))

	require.Len(t, fw.batches, 2)
	assert.Len(t, fw.batches[0], maxBatch)
	assert.Len(t, fw.batches[1], 3)

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestWavePublisher_LoadWaves_Empty(t *testing.T) {
	fw := &fakeWriter{}
	p := &WavePublisher{writer: fw, logger: slog.Default()}
	require.NoError(t, p.LoadWaves(context.Background(), nil))
	assert.Empty(t, fw.batches)
}

func TestWavePublisher_LoadWaves_WriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	p := &WavePublisher{writer: fw, logger: slog.Default()}

	err := p.LoadWaves(context.Background(), []domain.WaveSummary{testWave(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish waves")
	assert.Equal(t, "kafka", p.Name())
}
