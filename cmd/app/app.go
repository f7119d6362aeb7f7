package app

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gatherkit/rsvp-service/internal/adapters/config"
	"github.com/gatherkit/rsvp-service/internal/adapters/database/postgres"
	"github.com/gatherkit/rsvp-service/internal/domain/service"
	"github.com/gatherkit/rsvp-service/internal/domain/utils/templates"
	"github.com/gatherkit/rsvp-service/pkg/logger"
	"github.com/gatherkit/rsvp-service/pkg/logger/types"
	"github.com/gatherkit/rsvp-service/pkg/smtp"
	"github.com/spf13/viper"
)

// App wires the admission, waitlist, scheduling and dispatch services
// together and owns the dispatcher lifecycle.
type App struct {
	Admission  *service.AdmissionService
	Waitlist   *service.WaitlistService
	Scheduler  *service.SchedulerService
	Dispatcher *service.DispatcherService
	Stats      *service.StatsService
	Events     *service.EventService
	Users      *service.UserService

	Logger *types.Logger
}

func New(cfg *config.Config) (*App, error) {
	appLogger, err := logger.Named("app")
	if err != nil {
		return nil, err
	}

	responseStorage := postgres.NewResponseStorage(cfg.Database)
	eventStorage := postgres.NewEventStorage(cfg.Database)
	userStorage := postgres.NewUserStorage(cfg.Database)
	jobStorage := postgres.NewNotificationJobStorage(cfg.Database)

	schedulerLogger, err := logger.Named("scheduler")
	if err != nil {
		return nil, err
	}
	dispatcherLogger, err := logger.Named("dispatcher")
	if err != nil {
		return nil, err
	}

	eventService := service.NewEventService(appLogger, eventStorage, cfg.Redis.Events, responseStorage, nil)
	userService := service.NewUserService(appLogger, userStorage, responseStorage, nil)

	schedulerService := service.NewSchedulerService(schedulerLogger, jobStorage, responseStorage, eventService, userService)

	waitlistService := service.NewWaitlistService(appLogger, responseStorage, eventService, schedulerService)
	admissionService := service.NewAdmissionService(appLogger, responseStorage, eventService, schedulerService, waitlistService)
	statsService := service.NewStatsService(responseStorage)

	eventService.SetPromoter(waitlistService)
	userService.SetScheduler(schedulerService)

	dispatcherService := service.NewDispatcherService(
		dispatcherLogger,
		jobStorage,
		responseStorage,
		eventService,
		userService,
		templates.New(),
		smtp.NewClient(cfg.SMTPDialer),
		cfg.Redis.Inbox,
		viper.GetDuration("settings.dispatch.poll-interval"),
		viper.GetInt("settings.dispatch.poll-limit"),
	)

	return &App{
		Admission:  admissionService,
		Waitlist:   waitlistService,
		Scheduler:  schedulerService,
		Dispatcher: dispatcherService,
		Stats:      statsService,
		Events:     eventService,
		Users:      userService,

		Logger: appLogger,
	}, nil
}

// Start runs the dispatcher poll loop until the process is signalled.
func (a *App) Start() {
	a.Logger.Info("Service starting")
	a.Dispatcher.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.Dispatcher.Stop()
	a.Logger.Info("Service stopped")
}
