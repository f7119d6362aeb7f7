package service

import (
	"context"
	"sync"
	"time"

	"github.com/gatherkit/rsvp-service/internal/adapters/database/redis/inbox"
	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"github.com/gatherkit/rsvp-service/pkg/logger/types"
)

const (
	dispatchBatchSize  = 10
	dispatchBatchDelay = 2 * time.Second
)

type dispatcherResponseStorage interface {
	GetByID(ctx context.Context, id string) (*entity.Response, error)
	Update(ctx context.Context, response *entity.Response) (*entity.Response, error)
}

type templateRenderer interface {
	Render(kind string, response *entity.Response, event *entity.Event, user *entity.User) (subject, body string)
}

type emailSender interface {
	Send(to, subject, body string) (messageID string, err error)
}

type inAppInbox interface {
	Push(ctx context.Context, userID int64, message inbox.Message) error
}

// DispatcherService polls the job ledger for due jobs and hands them to the
// delivery collaborators. It runs on its own periodic cycle; nothing pushes
// into it.
type DispatcherService struct {
	logger *types.Logger

	jobs      NotificationJobStorage
	responses dispatcherResponseStorage
	events    schedulerEventProvider
	users     schedulerUserProvider

	renderer templateRenderer
	sender   emailSender
	inbox    inAppInbox

	pollInterval time.Duration
	pollLimit    int
	batchDelay   time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

func NewDispatcherService(
	logger *types.Logger,
	jobs NotificationJobStorage,
	responses dispatcherResponseStorage,
	events schedulerEventProvider,
	users schedulerUserProvider,
	renderer templateRenderer,
	sender emailSender,
	inAppFeed inAppInbox,
	pollInterval time.Duration,
	pollLimit int,
) *DispatcherService {
	return &DispatcherService{
		logger: logger,

		jobs:      jobs,
		responses: responses,
		events:    events,
		users:     users,

		renderer: renderer,
		sender:   sender,
		inbox:    inAppFeed,

		pollInterval: pollInterval,
		pollLimit:    pollLimit,
		batchDelay:   dispatchBatchDelay,

		stop: make(chan struct{}),
		now:  time.Now,
	}
}

// Start runs the poll loop until Stop is called.
func (s *DispatcherService) Start() {
	s.logger.Info("Starting notification dispatcher")
	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.ProcessPending(context.Background(), s.pollLimit)
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *DispatcherService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.logger.Info("Notification dispatcher stopped")
	})
}

// ProcessPending fetches up to limit due jobs (pending, scheduled by now,
// under the attempt cap) ordered by scheduled time and delivers them in
// fixed-size batches with a short delay between batches, respecting
// downstream rate limits. One job's failure never blocks the rest.
func (s *DispatcherService) ProcessPending(ctx context.Context, limit int) {
	due, err := s.jobs.GetDue(ctx, s.now(), limit)
	if err != nil {
		s.logger.Errorf("failed to fetch due notification jobs: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	s.logger.Debugf("Dispatching %d due notification jobs", len(due))

	for start := 0; start < len(due); start += dispatchBatchSize {
		if start > 0 {
			time.Sleep(s.batchDelay)
		}

		end := start + dispatchBatchSize
		if end > len(due) {
			end = len(due)
		}
		for i := start; i < end; i++ {
			s.dispatch(ctx, &due[i])
		}
	}
}

func (s *DispatcherService) dispatch(ctx context.Context, job *entity.NotificationJob) {
	response, err := s.responses.GetByID(ctx, job.ResponseID)
	if err != nil {
		s.fail(ctx, job, err)
		return
	}

	// A reminder already recorded on the response was delivered by an earlier
	// job incarnation (for example before a preference re-save recreated the
	// ledger). Mark the job sent without resending.
	if _, isReminder := entity.IsReminderKind(job.Kind); isReminder && response.HasSentReminder(job.Kind) {
		s.logger.Debugf("Skipping already-delivered reminder (job_id=%s, kind=%s)", job.ID, job.Kind)
		now := s.now()
		job.Status = entity.JobStatusSent
		job.LastAttemptAt = &now
		if _, err = s.jobs.Update(ctx, job); err != nil {
			s.logger.Errorf("failed to mark duplicate reminder job sent (job_id=%s): %v", job.ID, err)
		}
		return
	}

	event, err := s.events.Get(ctx, job.EventID)
	if err != nil {
		s.fail(ctx, job, err)
		return
	}

	user, err := s.users.Get(ctx, job.UserID)
	if err != nil {
		s.fail(ctx, job, err)
		return
	}

	subject, body := s.renderer.Render(job.Kind, response, event, user)

	switch job.Channel {
	case entity.ChannelEmail:
		_, err = s.sender.Send(user.Email, subject, body)
	case entity.ChannelInApp:
		err = s.inbox.Push(ctx, user.ID, inbox.Message{
			Kind:      job.Kind,
			EventID:   event.ID,
			Body:      body,
			CreatedAt: s.now(),
		})
	}
	if err != nil {
		s.fail(ctx, job, err)
		return
	}

	now := s.now()
	job.Status = entity.JobStatusSent
	job.Attempts++
	job.LastAttemptAt = &now
	if _, err = s.jobs.Update(ctx, job); err != nil {
		s.logger.Errorf("failed to mark job sent (job_id=%s): %v", job.ID, err)
		return
	}

	if _, isReminder := entity.IsReminderKind(job.Kind); isReminder {
		response.AddSentReminder(job.Kind)
	} else if job.Kind == entity.KindConfirmation {
		response.ConfirmationSent = true
	} else {
		return
	}
	if _, err = s.responses.Update(ctx, response); err != nil {
		s.logger.Errorf("failed to record delivery on response (response_id=%s): %v", response.ID, err)
	}
}

// fail records the failed attempt. Failed jobs stay failed until an explicit
// administrative requeue; the due-job scan does not revisit them.
func (s *DispatcherService) fail(ctx context.Context, job *entity.NotificationJob, cause error) {
	s.logger.Errorf("failed to deliver notification (job_id=%s, kind=%s, channel=%s): %v", job.ID, job.Kind, job.Channel, cause)

	now := s.now()
	job.Status = entity.JobStatusFailed
	job.Attempts++
	job.LastAttemptAt = &now
	job.ErrorMessage = cause.Error()
	if _, err := s.jobs.Update(ctx, job); err != nil {
		s.logger.Errorf("failed to record job failure (job_id=%s): %v", job.ID, err)
	}
}
