package worker

import (
	"errors"
	"time"

	"cakery_api/pkg/logger"
	"cakery_api/pkg/mailer"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by Send when the pool cannot accept more work.
var ErrQueueFull = errors.New("email queue full")

// EmailTask is one queued outbound email.
type EmailTask struct {
	To      string
	Subject string
	Body    string
	Retry   int
}

// EmailPool sends email off the request path. Delivery is best effort:
// failed sends are retried a few times with backoff, then dropped with a
// dead-letter log line. The pool satisfies mailer.Mailer so services keep
// depending on the interface.
type EmailPool struct {
	taskQueue  chan EmailTask
	retryQueue chan EmailTask
	transport  mailer.Mailer
	workerNum  int
	maxRetry   int
}

func NewEmailPool(transport mailer.Mailer, workerNum, bufferSize int) *EmailPool {
	return &EmailPool{
		taskQueue:  make(chan EmailTask, bufferSize),
		retryQueue: make(chan EmailTask, bufferSize/2),
		transport:  transport,
		workerNum:  workerNum,
		maxRetry:   3,
	}
}

func (p *EmailPool) Start() {
	for i := 0; i < p.workerNum; i++ {
		go p.worker(i)
	}
	go p.retryWorker()
	logger.Log.Info("email worker pool started", zap.Int("workers", p.workerNum))
}

// Send enqueues the email. An error is returned only when the queue is
// full; callers already treat send failures as non-fatal.
func (p *EmailPool) Send(to, subject, body string) error {
	task := EmailTask{To: to, Subject: subject, Body: body}
	select {
	case p.taskQueue <- task:
		return nil
	default:
		p.logDroppedTask(task, nil)
		return ErrQueueFull
	}
}

func (p *EmailPool) worker(id int) {
	for task := range p.taskQueue {
		err := p.transport.Send(task.To, task.Subject, task.Body)
		if err == nil {
			continue
		}

		logger.Log.Warn("email send failed",
			zap.Int("worker", id), zap.String("to", task.To),
			zap.Int("attempt", task.Retry+1), zap.Error(err))

		if task.Retry < p.maxRetry {
			task.Retry++
			select {
			case p.retryQueue <- task:
			default:
				p.logDroppedTask(task, err)
			}
		} else {
			p.logDroppedTask(task, err)
		}
	}
}

func (p *EmailPool) retryWorker() {
	for task := range p.retryQueue {
		// Linear backoff; spacing retries out is enough for SMTP hiccups.
		time.Sleep(time.Duration(task.Retry) * time.Second)

		select {
		case p.taskQueue <- task:
		default:
			p.logDroppedTask(task, nil)
		}
	}
}

func (p *EmailPool) logDroppedTask(task EmailTask, err error) {
	logger.Log.Error("email dropped permanently",
		zap.String("to", task.To), zap.String("subject", task.Subject),
		zap.Int("retries", task.Retry), zap.Error(err))
}

var _ mailer.Mailer = (*EmailPool)(nil)
