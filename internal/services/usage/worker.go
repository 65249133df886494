package usage

import (
	"context"
	"sync"
	"time"

	"github.com/Egham-7/adaptive-chat/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const recordTimeout = 5 * time.Second

// Worker records completions in the background so requests never wait on the database
type Worker struct {
	service *Service
	tasks   chan *models.CompletionRecord
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewWorker starts poolSize goroutines draining a buffer of bufferSize records
func NewWorker(service *Service, poolSize, bufferSize int) *Worker {
	if poolSize <= 0 {
		poolSize = 1
	}
	w := &Worker{
		service: service,
		tasks:   make(chan *models.CompletionRecord, bufferSize),
	}

	for range poolSize {
		w.wg.Add(1)
		go w.run()
	}
	return w
}

// Record queues the record. It drops the record when the buffer is full.
func (w *Worker) Record(_ context.Context, record *models.CompletionRecord) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		fiberlog.Warnf("[%s] Usage worker stopped, dropping completion record", record.RequestID)
		return nil
	}

	select {
	case w.tasks <- record:
	default:
		fiberlog.Warnf("[%s] Usage recording buffer full, dropping completion record", record.RequestID)
	}
	return nil
}

func (w *Worker) run() {
	defer w.wg.Done()

	for record := range w.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := w.service.Record(ctx, record); err != nil {
			fiberlog.Errorf("[%s] Failed to record completion usage: %v", record.RequestID, err)
		}
		cancel()
	}
}

// Stop flushes queued records and waits for the pool to exit
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.tasks)
	w.mu.Unlock()

	w.wg.Wait()
}
