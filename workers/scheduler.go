package workers

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"inss_crm_go/metrics"
)

// Periodic schedules. The deadline sweep runs every 30 minutes; losing a
// prazo is measured in days, so tighter polling buys nothing. The
// notification outbox flushes every 5 minutes.
const (
	SchedulePrazoScan        = "@every 30m"
	ScheduleNotificacaoBatch = "@every 5m"
)

// NewServer builds the asynq worker server with queue priorities. Every
// failed attempt counts against the task-type failure metric.
func NewServer(redisOpt asynq.RedisClientOpt, concurrency int, m *metrics.Metrics, log *zap.Logger) *asynq.Server {
	if concurrency < 1 {
		concurrency = 10
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			m.TarefasFalhasTotal.WithLabelValues(task.Type()).Inc()
			log.Error("task falhou",
				zap.String("type", task.Type()),
				zap.Error(err))
		}),
	})
}

// NewScheduler builds the periodic scheduler with the deadline sweep and
// the notification outbox flush registered.
func NewScheduler(redisOpt asynq.RedisClientOpt, log *zap.Logger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})

	if _, err := scheduler.Register(SchedulePrazoScan,
		asynq.NewTask(TypePrazoScan, nil, asynq.Queue(QueueCritical))); err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(ScheduleNotificacaoBatch,
		asynq.NewTask(TypeNotificacaoBatch, nil, asynq.Queue(QueueDefault))); err != nil {
		return nil, err
	}

	log.Info("agendador configurado",
		zap.String("prazo_scan", SchedulePrazoScan),
		zap.String("notificacao_batch", ScheduleNotificacaoBatch))
	return scheduler, nil
}
