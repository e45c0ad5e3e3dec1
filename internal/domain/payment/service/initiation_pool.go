package service

import (
	"context"
	"errors"
	"time"

	"cakery_api/pkg/logger"

	"go.uber.org/zap"
)

// ErrInitiationQueueFull is returned by Enqueue when the pool cannot accept
// more pushes.
var ErrInitiationQueueFull = errors.New("payment initiation queue full")

// InitiationPool runs gateway pushes off the request path. Transient push
// failures are retried with backoff; after maxRetry the attempt is marked
// failed and the customer notified.
type InitiationPool struct {
	taskQueue  chan InitiationTask
	retryQueue chan InitiationTask
	service    PaymentService
	workerNum  int
	maxRetry   int
}

func NewInitiationPool(s PaymentService, workerNum, bufferSize int) *InitiationPool {
	return &InitiationPool{
		taskQueue:  make(chan InitiationTask, bufferSize),
		retryQueue: make(chan InitiationTask, bufferSize/2),
		service:    s,
		workerNum:  workerNum,
		maxRetry:   3,
	}
}

func (p *InitiationPool) Start() {
	for i := 0; i < p.workerNum; i++ {
		go p.worker(i)
	}
	go p.retryWorker()
	logger.Log.Info("payment initiation pool started", zap.Int("workers", p.workerNum))
}

// Enqueue accepts a queued attempt for processing. A full queue is an
// error: the caller fails the attempt rather than leaving it stuck in
// queued forever.
func (p *InitiationPool) Enqueue(task InitiationTask) error {
	select {
	case p.taskQueue <- task:
		return nil
	default:
		return ErrInitiationQueueFull
	}
}

func (p *InitiationPool) worker(id int) {
	for task := range p.taskQueue {
		err := p.service.ProcessInitiation(context.Background(), task)
		if err == nil {
			continue
		}

		logger.Log.Warn("payment push failed",
			zap.Int("worker", id), zap.Uint("attempt_id", task.AttemptID),
			zap.Int("attempt", task.Retry+1), zap.Error(err))

		if task.Retry < p.maxRetry {
			task.Retry++
			select {
			case p.retryQueue <- task:
			default:
				p.service.FailInitiation(task, err.Error())
			}
		} else {
			p.service.FailInitiation(task, err.Error())
		}
	}
}

func (p *InitiationPool) retryWorker() {
	for task := range p.retryQueue {
		// Linear backoff; gateway hiccups clear within seconds.
		time.Sleep(time.Duration(task.Retry*2) * time.Second)

		select {
		case p.taskQueue <- task:
		default:
			p.service.FailInitiation(task, "payment initiation queue full")
		}
	}
}

var _ Enqueuer = (*InitiationPool)(nil)
