// Package batch 以固定數量的 worker 併發擷取並寫入大量貼文
package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"recipe-extractor/internal/core/extract"
	"recipe-extractor/internal/core/ingest"
	"recipe-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	ErrQueueFull = errors.New("queue is full")
	ErrClosed    = errors.New("batch manager is closed")
)

// 處理結果分類
const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Document 待處理的貼文
type Document struct {
	Text   string `json:"text"`
	Title  string `json:"title,omitempty"`
	Source string `json:"source"`
}

// Extractor 文字擷取
type Extractor interface {
	Extract(text, title string) extract.RecipeRecord
}

// Ingester 寫入
type Ingester interface {
	Ingest(ctx context.Context, rec extract.RecipeRecord, source string) (*ingest.Result, error)
}

// Submitter 接收待處理貼文，*Manager 即為實作
type Submitter interface {
	Enqueue(ctx context.Context, doc Document) (<-chan Result, error)
}

// Recorder 處理結果的統計掛鉤
type Recorder interface {
	RecordOutcome(outcome string, d time.Duration)
}

// Result 單筆處理結果
type Result struct {
	Document Document       `json:"document"`
	Outcome  string         `json:"outcome"`
	Ingest   *ingest.Result `json:"ingest,omitempty"`
	Attempts int            `json:"attempts"`
	Err      error          `json:"-"`
}

// Config 隊列設定
type Config struct {
	Workers      int
	MaxSize      int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	RejectedCount  int `json:"rejected_count"`
	FailedCount    int `json:"failed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

type job struct {
	ctx    context.Context
	doc    Document
	result chan Result
}

// Option 選項
type Option func(*Manager)

// WithRecorder 設定統計掛鉤
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// Manager 隊列管理器
type Manager struct {
	cfg       Config
	extractor Extractor
	ingester  Ingester
	recorder  Recorder

	queue     chan *job
	done      chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	startOnce sync.Once
	closeOnce sync.Once

	processed int64
	rejected  int64
	failed    int64
}

// NewManager 創建新的隊列管理器
func NewManager(cfg Config, ex Extractor, ing Ingester, opts ...Option) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}
	m := &Manager{
		cfg:       cfg,
		extractor: ex,
		ingester:  ing,
		queue:     make(chan *job, cfg.MaxSize),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start 啟動 worker
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		for i := 0; i < m.cfg.Workers; i++ {
			m.wg.Add(1)
			go m.worker(i)
		}
		common.LogInfo("批次處理已啟動",
			zap.Int("workers", m.cfg.Workers),
			zap.Int("max_queue_size", m.cfg.MaxSize),
		)
	})
}

// Enqueue 將貼文加入隊列，結果由回傳的 channel 送出
func (m *Manager) Enqueue(ctx context.Context, doc Document) (<-chan Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	if len(m.queue) >= m.cfg.MaxSize {
		return nil, ErrQueueFull
	}

	j := &job{ctx: ctx, doc: doc, result: make(chan Result, 1)}
	select {
	case m.queue <- j:
		common.LogDebug("Document enqueued",
			zap.String("source", doc.Source),
			zap.Int("queue_length", len(m.queue)),
		)
		return j.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, ErrClosed
	}
}

// Process 逐筆送入隊列並依輸入順序回傳結果；隊列滿時等待
func (m *Manager) Process(ctx context.Context, docs []Document) ([]Result, error) {
	m.Start()

	chans := make([]<-chan Result, 0, len(docs))
	for _, doc := range docs {
		ch, err := m.enqueueWait(ctx, doc)
		if err != nil {
			return nil, err
		}
		chans = append(chans, ch)
	}

	results := make([]Result, 0, len(docs))
	for _, ch := range chans {
		select {
		case r := <-ch:
			results = append(results, r)
		case <-ctx.Done():
			return results, ctx.Err()
		}
	}
	return results, nil
}

func (m *Manager) enqueueWait(ctx context.Context, doc Document) (<-chan Result, error) {
	for {
		ch, err := m.Enqueue(ctx, doc)
		if !errors.Is(err, ErrQueueFull) {
			return ch, err
		}
		select {
		case <-time.After(10 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.done:
			return nil, ErrClosed
		}
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for j := range m.queue {
		r := m.handle(j)
		j.result <- r
	}
	common.LogDebug("worker stopped", zap.Int("worker", id))
}

func (m *Manager) handle(j *job) Result {
	start := time.Now()
	res := Result{Document: j.doc}
	rec := m.extractor.Extract(j.doc.Text, j.doc.Title)

	for attempt := 0; ; attempt++ {
		res.Attempts = attempt + 1
		out, err := m.ingester.Ingest(j.ctx, rec, j.doc.Source)
		if err == nil {
			res.Ingest = out
			res.Err = nil
			break
		}
		res.Err = err
		if !retryable(err) || attempt >= m.cfg.MaxRetries {
			break
		}

		backoff := m.cfg.RetryBackoff * time.Duration(attempt+1)
		common.LogWarn("寫入失敗，稍後重試",
			zap.String("source", j.doc.Source),
			zap.Int("attempt", res.Attempts),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if !m.sleep(j.ctx, backoff) {
			break
		}
	}

	switch {
	case res.Err == nil && res.Ingest.AlreadyExists:
		res.Outcome = OutcomeDuplicate
	case res.Err == nil:
		res.Outcome = OutcomeStored
	case ingest.IsInsufficient(res.Err):
		res.Outcome = OutcomeRejected
		atomic.AddInt64(&m.rejected, 1)
	default:
		res.Outcome = OutcomeFailed
		atomic.AddInt64(&m.failed, 1)
		common.LogError("貼文處理失敗", zap.String("source", j.doc.Source), zap.Error(res.Err))
	}
	atomic.AddInt64(&m.processed, 1)

	if m.recorder != nil {
		m.recorder.RecordOutcome(res.Outcome, time.Since(start))
	}
	return res
}

// retryable 只有儲存層錯誤才重試，食材不足是確定性的結果
func retryable(err error) bool {
	if ingest.IsInsufficient(err) {
		return false
	}
	return errors.Is(err, common.ErrStoreError)
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-m.done:
		return false
	}
}

// Status 獲取隊列狀態
func (m *Manager) Status() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		RejectedCount:  int(atomic.LoadInt64(&m.rejected)),
		FailedCount:    int(atomic.LoadInt64(&m.failed)),
		MaxQueueSize:   m.cfg.MaxSize,
		Workers:        m.cfg.Workers,
	}
}

// Close 停止接收新貼文，等待 worker 處理完已入隊的項目
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		m.closed = true
		close(m.queue)
		m.mu.Unlock()
		m.wg.Wait()
		common.LogInfo("批次處理已關閉",
			zap.Int64("processed", atomic.LoadInt64(&m.processed)),
			zap.Int64("rejected", atomic.LoadInt64(&m.rejected)),
			zap.Int64("failed", atomic.LoadInt64(&m.failed)),
		)
	})
}
