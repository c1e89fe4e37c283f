// Package kafka 從 Kafka 主題消費 Reddit 食譜訊息並交給批次處理
package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"recipe-extractor/internal/core/batch"
	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message 主題上的食譜訊息
type Message struct {
	Title       string `json:"title"`
	Comment     string `json:"comment"`
	User        string `json:"user"`
	Date        string `json:"date"`
	NumComments int    `json:"num_comments"`
}

// Source 訊息的來源字串
func (m Message) Source() string {
	return fmt.Sprintf("kafka:%s:%s", strings.TrimSpace(m.User), strings.TrimSpace(m.Date))
}

// Reader 抽象 kafka.Reader 以便測試
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Stats 消費統計
type Stats struct {
	Consumed  int64 `json:"consumed"`
	Stored    int64 `json:"stored"`
	Duplicate int64 `json:"duplicate"`
	Rejected  int64 `json:"rejected"`
	Failed    int64 `json:"failed"`
	Malformed int64 `json:"malformed"`
}

// Consumer Kafka 消費者
type Consumer struct {
	reader Reader
	sink   batch.Submitter
	stats  Stats
}

// NewConsumer 依設定建立 kafka.Reader
func NewConsumer(cfg config.KafkaConfig, sink batch.Submitter) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})
	common.LogInfo("Kafka 消費者已建立",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID),
	)
	return newConsumer(reader, sink)
}

func newConsumer(r Reader, sink batch.Submitter) *Consumer {
	return &Consumer{reader: r, sink: sink}
}

// Run 持續消費直到 ctx 結束或 reader 關閉；每則訊息處理完才提交
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}
		atomic.AddInt64(&c.stats.Consumed, 1)

		if err := c.handle(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit message: %w", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	var msg Message
	if err := common.ParseJSONBytes(m.Value, &msg); err != nil || strings.TrimSpace(msg.Comment) == "" {
		atomic.AddInt64(&c.stats.Malformed, 1)
		common.LogWarn("略過格式錯誤的訊息",
			zap.Int64("offset", m.Offset),
			zap.Int("partition", m.Partition),
			zap.Error(err),
		)
		return nil
	}

	ch, err := c.sink.Enqueue(ctx, batch.Document{Text: msg.Comment, Title: msg.Title, Source: msg.Source()})
	if err != nil {
		return fmt.Errorf("failed to enqueue message: %w", err)
	}

	select {
	case res := <-ch:
		c.count(res.Outcome)
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (c *Consumer) count(outcome string) {
	switch outcome {
	case batch.OutcomeStored:
		atomic.AddInt64(&c.stats.Stored, 1)
	case batch.OutcomeDuplicate:
		atomic.AddInt64(&c.stats.Duplicate, 1)
	case batch.OutcomeRejected:
		atomic.AddInt64(&c.stats.Rejected, 1)
	default:
		atomic.AddInt64(&c.stats.Failed, 1)
	}
}

// Stats 獲取統計信息
func (c *Consumer) Stats() Stats {
	return Stats{
		Consumed:  atomic.LoadInt64(&c.stats.Consumed),
		Stored:    atomic.LoadInt64(&c.stats.Stored),
		Duplicate: atomic.LoadInt64(&c.stats.Duplicate),
		Rejected:  atomic.LoadInt64(&c.stats.Rejected),
		Failed:    atomic.LoadInt64(&c.stats.Failed),
		Malformed: atomic.LoadInt64(&c.stats.Malformed),
	}
}

// Close 關閉 reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
