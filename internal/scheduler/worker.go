package scheduler

import (
	"context"
	"fmt"

	"edpulse_backend/internal/email"
	"edpulse_backend/internal/intake/repository"
	"edpulse_backend/platform/config"
	"edpulse_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker runs the asynq server and delivers queued reminder emails.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	visitors *repository.VisitorRepository
	sender   email.Sender
	log      *logger.Logger
}

// NewWorker creates the background worker.
func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		visitors: repository.NewVisitorRepository(pool),
		sender:   sender,
		log:      log,
	}

	mux.HandleFunc(TaskPreferenceReminder, w.handlePreferenceReminder)

	return w, nil
}

// Run starts the asynq server and blocks until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handlePreferenceReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePreferenceReminderPayload(task)
	if err != nil {
		return err
	}

	if payload.Email == "" {
		return nil
	}

	// The visitor may have completed their profile between enqueue and
	// delivery; re-check before nagging them.
	if visitorID, parseErr := uuid.Parse(payload.VisitorID); parseErr == nil {
		interests, err := w.visitors.ListInterests(ctx, visitorID)
		if err != nil {
			return err
		}
		preferences, err := w.visitors.ListPreferences(ctx, visitorID)
		if err != nil {
			return err
		}
		if len(interests) > 0 || len(preferences) > 0 {
			return nil
		}
	}

	description := email.MissingSectionsDescription(payload.MissingInterests, payload.MissingPreferences)
	if description == "" {
		return nil
	}

	if err := w.sender.SendPreferenceReminderEmail(ctx, payload.Email, payload.FirstName, description); err != nil {
		w.log.EmailEvent("preference_reminder", payload.Email, false, err.Error())
		return err
	}

	w.log.EmailEvent("preference_reminder", payload.Email, true, "")
	return nil
}
