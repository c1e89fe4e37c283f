package kafka

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"recipe-extractor/internal/core/batch"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(context.Context) (kafka.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

// fakeSink 依標題決定處理結果
type fakeSink struct {
	docs []batch.Document
}

func (f *fakeSink) Enqueue(_ context.Context, doc batch.Document) (<-chan batch.Result, error) {
	f.docs = append(f.docs, doc)
	ch := make(chan batch.Result, 1)
	outcome := batch.OutcomeStored
	if doc.Title == "bad" {
		outcome = batch.OutcomeRejected
	}
	ch <- batch.Result{Document: doc, Outcome: outcome}
	return ch, nil
}

func message(t *testing.T, offset int64, m Message) kafka.Message {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: b}
}

func TestConsumerRun(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{
		message(t, 1, Message{Title: "Chili", Comment: "Ingredients: beans", User: "cook42", Date: "2024-01-01", NumComments: 3}),
		{Offset: 2, Value: []byte("{not json")},
		message(t, 3, Message{Title: "bad", Comment: "lol", User: "troll", Date: "2024-01-02"}),
		message(t, 4, Message{Title: "empty", Comment: "   "}),
	}}
	sink := &fakeSink{}
	c := newConsumer(reader, sink)

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committed)
	require.Len(t, sink.docs, 2)
	assert.Equal(t, "kafka:cook42:2024-01-01", sink.docs[0].Source)
	assert.Equal(t, "Ingredients: beans", sink.docs[0].Text)
	assert.Equal(t, "Chili", sink.docs[0].Title)

	stats := c.Stats()
	assert.Equal(t, int64(4), stats.Consumed)
	assert.Equal(t, int64(1), stats.Stored)
	assert.Equal(t, int64(1), stats.Rejected)
	assert.Equal(t, int64(2), stats.Malformed)
}

func TestConsumerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newConsumer(&fakeReader{msgs: []kafka.Message{message(t, 1, Message{Comment: "x"})}}, &fakeSink{})
	// 訊息已取出但 ctx 已取消，Run 仍正常結束
	assert.NoError(t, c.Run(ctx))
}
