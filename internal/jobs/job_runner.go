package jobs

import (
	"context"

	"iznajmi-backend/internal/config"
	"iznajmi-backend/internal/logger"
	"iznajmi-backend/internal/repository"
	"iznajmi-backend/internal/service"
	"iznajmi-backend/internal/utils"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    repository.Store
	services *Services
	sinks    []Sink
	clock    utils.Clock
	config   *config.Config
}

// Services holds the outbound channels jobs deliver through. Nil members are disabled.
type Services struct {
	Email service.EmailService
	Push  service.PushService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, services *Services, clock utils.Clock, cfg *config.Config) *JobRunner {
	if services == nil {
		services = &Services{}
	}
	return &JobRunner{
		store:    store,
		services: services,
		sinks:    buildSinks(services),
		clock:    clock,
		config:   cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	log := logger.WithJob(jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	log.Info("Starting job")
	if err := jobFunc(context.Background()); err != nil {
		log.Error("Job failed", "error", err)
		return
	}
	log.Info("Job completed")
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.DispatchNotifications()
	jr.SendReturnReminders()
}

// ServicesFromConfig builds the delivery channels that are configured. SendGrid needs an API key
// and FCM a credentials file; a missing setting leaves that channel disabled.
func ServicesFromConfig(ctx context.Context, cfg *config.Config) (*Services, error) {
	n := cfg.Notifications
	services := &Services{}
	if n.SendGridAPIKey != "" {
		services.Email = service.NewEmailService(n.SendGridAPIKey, n.FromEmail, n.FromName, n.LinkBaseURL)
	} else {
		logger.Warn("SendGrid API key not set, email delivery disabled")
	}
	if n.FirebaseCredentialsFile != "" {
		push, err := service.NewPushService(ctx, n.FirebaseCredentialsFile)
		if err != nil {
			return nil, err
		}
		services.Push = push
	} else {
		logger.Warn("Firebase credentials not set, push delivery disabled")
	}
	return services, nil
}
