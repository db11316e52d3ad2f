package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andrej220/netaudit/internal/report"
	dm "github.com/andrej220/netaudit/pkg/shared-models"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func sampleRecords(t *testing.T) []dm.RunRecord {
	t.Helper()
	ok := report.New("r1")
	ok.Set("backup", "/backups/r1-17-10-2026.txt")
	degraded := report.New("r3")
	degraded.Set("cdp", "sw1 Gi0/1")

	results := []report.RunResult{
		report.Success(ok, nil),
		report.Failure("r2", errors.New("connection refused")),
		report.Success(degraded, []report.TaskFailure{
			{Task: "ntp", Err: errors.New("timeout")},
			{Task: "backup", Err: errors.New("disk full")},
		}),
	}
	return Records(uuid.New(), time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC), results)
}

func TestRecords(t *testing.T) {
	records := sampleRecords(t)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"r1", "r2", "r3"}, []string{records[0].Hostname, records[1].Hostname, records[2].Hostname})
	assert.Equal(t, records[0].RunID, records[2].RunID)
	assert.Equal(t, dm.StatusFailure, records[1].Status)
	assert.Equal(t, "connection refused", records[1].Error)
	assert.Equal(t, "r3|sw1 Gi0/1", records[2].Line)
	assert.Len(t, records[2].TaskErrors, 2)
}

func TestConsole(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer

	c := NewConsole(&out, &errOut)
	require.NoError(t, c.Publish(context.Background(), sampleRecords(t)))

	assert.Equal(t, "r1|/backups/r1-17-10-2026.txt\nr3|sw1 Gi0/1\n", out.String())
	assert.Equal(t,
		"r2: connection refused\nr3: backup: disk full\nr3: ntp: timeout\n",
		errOut.String())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	records := sampleRecords(t)

	require.NoError(t, NewFile(path).Publish(context.Background(), records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []dm.RunRecord
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 3)
	assert.Equal(t, "r2", got[1].Hostname)
	assert.Equal(t, dm.StatusFailure, got[1].Status)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafka(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{writer: w, topic: "netaudit-results"}

	require.NoError(t, k.Publish(context.Background(), sampleRecords(t)))
	require.Len(t, w.msgs, 3)
	for i, host := range []string{"r1", "r2", "r3"} {
		assert.Equal(t, host, string(w.msgs[i].Key))
		var rec dm.RunRecord
		require.NoError(t, json.Unmarshal(w.msgs[i].Value, &rec))
		assert.Equal(t, host, rec.Hostname)
	}

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafkaWriteError(t *testing.T) {
	k := &Kafka{writer: &fakeWriter{err: kafka.UnknownTopicOrPartition}, topic: "missing"}

	err := k.Publish(context.Background(), sampleRecords(t))
	assert.ErrorIs(t, err, kafka.UnknownTopicOrPartition)
	assert.NoError(t, k.Publish(context.Background(), nil))
}

type fakeCollection struct {
	docs []interface{}
	err  error
}

func (c *fakeCollection) InsertMany(_ context.Context, docs []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.docs = append(c.docs, docs...)
	return &mongo.InsertManyResult{}, nil
}

func TestMongo(t *testing.T) {
	coll := &fakeCollection{}
	m := &Mongo{collection: coll}

	require.NoError(t, m.Publish(context.Background(), sampleRecords(t)))
	require.Len(t, coll.docs, 3)
	assert.Equal(t, "r3", coll.docs[2].(dm.RunRecord).Hostname)
	assert.NoError(t, m.Close())

	m = &Mongo{collection: &fakeCollection{err: errors.New("not primary")}}
	assert.ErrorContains(t, m.Publish(context.Background(), sampleRecords(t)), "not primary")
}

type stubSink struct {
	name      string
	err       error
	published int
	closed    bool
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Publish(_ context.Context, records []dm.RunRecord) error {
	s.published += len(records)
	return s.err
}

func (s *stubSink) Close() error {
	s.closed = true
	return nil
}

func TestDispatchContinuesPastFailingSink(t *testing.T) {
	broken := &stubSink{name: "broken", err: errors.New("unreachable")}
	healthy := &stubSink{name: "healthy"}

	failed := Dispatch(context.Background(), sampleRecords(t), broken, healthy)

	assert.Equal(t, 1, failed)
	assert.Equal(t, 3, healthy.published)
	assert.True(t, broken.closed)
	assert.True(t, healthy.closed)
}
