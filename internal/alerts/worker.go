package alerts

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker consumes the email queue and hands payloads to the mailer.
type Worker struct {
	server *asynq.Server
	mailer *Mailer
	log    *zap.Logger
}

func NewWorker(redisAddr string, mailer *Mailer, log *zap.Logger) *Worker {
	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			emailQueue: 10,
		},
	})
	return &Worker{server: server, mailer: mailer, log: log}
}

// Start runs the worker in the background. Call Shutdown on exit.
func (w *Worker) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskBookingAssigned, w.handleEnvelope)
	mux.HandleFunc(TaskBookingUnassigned, w.handleEnvelope)
	mux.HandleFunc(TaskBookingCompleted, w.handleEnvelope)
	mux.HandleFunc(TaskBookingCancelled, w.handleEnvelope)
	mux.HandleFunc(TaskPasswordReset, w.handleEnvelope)

	go func() {
		if err := w.server.Run(mux); err != nil {
			w.log.Error("alert worker stopped", zap.Error(err))
		}
	}()
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// handleEnvelope extracts the common envelope; every task payload carries
// one, so a single handler covers all four task types.
func (w *Worker) handleEnvelope(_ context.Context, t *asynq.Task) error {
	var p struct {
		Envelope EmailEnvelope `json:"envelope"`
	}
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := w.mailer.Send(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		w.log.Error("email send failed",
			zap.String("task", t.Type()), zap.String("to", p.Envelope.To), zap.Error(err))
		return err
	}
	w.log.Info("email sent", zap.String("task", t.Type()), zap.String("to", p.Envelope.To))
	return nil
}
