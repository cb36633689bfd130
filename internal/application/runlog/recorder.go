// Package runlog 异步落库流水线运行日志
package runlog

import (
	"context"
	"encoding/json"
	"time"

	"culinova-ai-api/internal/domain/entity"
	"culinova-ai-api/internal/domain/repository"
	"culinova-ai-api/pkg/logger"
	"culinova-ai-api/pkg/metrics"
)

// Entry 一次终态运行的日志内容
type Entry struct {
	Operation        string
	Provider         string
	Model            string
	Temperature      float64
	UsedJSONFallback bool
	UsedRepairPrompt bool
	HardError        bool
	Warnings         []string
	RequestJSON      any
	ResponseJSON     any
	RawOutput        string
	LatencyMs        int
	PromptVersion    string
	SchemaVersion    int
}

// Recorder 带缓冲的异步写入器。Record 从不阻塞调用方：
// 队列满时丢弃并计数，日志失败不影响菜谱返回。
type Recorder struct {
	repo repository.RecipeRunRepository
	ch   chan *entity.RecipeRun
	done chan struct{}
}

const (
	recorderQueueSize   = 256
	recorderWriteBudget = 5 * time.Second
)

func NewRecorder(repo repository.RecipeRunRepository) *Recorder {
	r := &Recorder{
		repo: repo,
		ch:   make(chan *entity.RecipeRun, recorderQueueSize),
		done: make(chan struct{}),
	}
	go r.worker()
	return r
}

// Record 提交一条运行日志，立即返回
func (r *Recorder) Record(ctx context.Context, e *Entry) {
	if r == nil || e == nil {
		return
	}

	run := buildRun(e)

	select {
	case r.ch <- run:
	default:
		metrics.RunLogDroppedTotal.Inc()
		logger.Warn(ctx, "run log queue full, entry dropped",
			"operation", e.Operation,
			"model", e.Model,
		)
	}
}

// Close 停止接收并等待队列清空
func (r *Recorder) Close() {
	close(r.ch)
	<-r.done
}

func (r *Recorder) worker() {
	defer close(r.done)
	for run := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), recorderWriteBudget)
		if err := r.repo.Create(ctx, run); err != nil {
			metrics.RunLogWriteTotal.WithLabelValues("error").Inc()
			logger.Warn(ctx, "failed to persist run log",
				"operation", run.Operation,
				"error", err.Error(),
			)
		} else {
			metrics.RunLogWriteTotal.WithLabelValues("success").Inc()
		}
		cancel()
	}
}

func buildRun(e *Entry) *entity.RecipeRun {
	run := &entity.RecipeRun{
		Operation:        e.Operation,
		Provider:         e.Provider,
		Model:            e.Model,
		Temperature:      e.Temperature,
		UsedJSONFallback: e.UsedJSONFallback,
		UsedRepairPrompt: e.UsedRepairPrompt,
		HardError:        e.HardError,
		RawOutput:        e.RawOutput,
		LatencyMs:        e.LatencyMs,
		PromptVersion:    e.PromptVersion,
		SchemaVersion:    e.SchemaVersion,
	}

	// 序列化失败就存空值，日志内容永远不反向阻断
	if b, err := json.Marshal(e.Warnings); err == nil {
		run.Warnings = b
	}
	if e.RequestJSON != nil {
		if b, err := json.Marshal(e.RequestJSON); err == nil {
			run.RequestJSON = b
		}
	}
	if e.ResponseJSON != nil {
		if b, err := json.Marshal(e.ResponseJSON); err == nil {
			run.ResponseJSON = b
		}
	}
	return run
}
