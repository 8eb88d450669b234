// Package worker запускает периодические задачи сервиса: сгорание баллов,
// сверку балансов и повтор возвратов.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
)

// Job периодическая задача
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler запускает каждую задачу в своей горутине. Запуски одной задачи
// не перекрываются: следующий тик ждёт окончания предыдущего.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []Job
	metrics *metrics.Metrics
	logger  Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler создает планировщик. Задачи с неположительным интервалом отключены.
func NewScheduler(metrics *metrics.Metrics, logger Logger, jobs ...Job) *Scheduler {
	enabled := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job.Interval <= 0 {
			logger.Info("Scheduler: job %s is disabled", job.Name)
			continue
		}
		enabled = append(enabled, job)
	}
	return &Scheduler{jobs: enabled, metrics: metrics, logger: logger}
}

// Start запускает задачи. Первый запуск выполняется сразу.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
	s.logger.Info("Scheduler: started %d jobs", len(s.jobs))
}

// Stop останавливает задачи и ждёт завершения текущих запусков
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("Scheduler: stopped")
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.runOnce(ctx, job)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("Scheduler: job %s failed after %s: %v", job.Name, time.Since(started), err)
		s.metrics.IncWorkerRun(job.Name, "error")
		return
	}
	s.metrics.IncWorkerRun(job.Name, "ok")
}
