package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gatherkit/rsvp-service/internal/adapters/database/redis/inbox"
	"github.com/gatherkit/rsvp-service/internal/domain/common/errorz"
	"github.com/gatherkit/rsvp-service/internal/domain/dto"
	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"github.com/gatherkit/rsvp-service/pkg/logger/types"
	"go.uber.org/zap"
)

func newTestLogger() *types.Logger {
	return &types.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// memResponseStorage is an in-memory ResponseStorage with the same uniqueness
// and ordering behavior as the postgres adapter.
type memResponseStorage struct {
	mu        sync.Mutex
	responses map[string]*entity.Response
	order     []string // insertion order of response IDs
	nextID    int

	failUpdateFor map[int64]bool
}

func newMemResponseStorage() *memResponseStorage {
	return &memResponseStorage{
		responses:     make(map[string]*entity.Response),
		failUpdateFor: make(map[int64]bool),
	}
}

func (m *memResponseStorage) Create(_ context.Context, response *entity.Response) (*entity.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.responses {
		if existing.EventID == response.EventID && existing.UserID == response.UserID {
			return nil, errorz.DuplicateResponse
		}
	}

	m.nextID++
	response.ID = fmt.Sprintf("response-%d", m.nextID)
	response.CreatedAt = time.Now()
	stored := *response
	m.responses[response.ID] = &stored
	m.order = append(m.order, response.ID)
	return response, nil
}

func (m *memResponseStorage) Get(_ context.Context, eventID string, userID int64) (*entity.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.responses {
		if existing.EventID == eventID && existing.UserID == userID {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, errorz.ResponseNotFound
}

func (m *memResponseStorage) GetByID(_ context.Context, id string) (*entity.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.responses[id]
	if !ok {
		return nil, errorz.ResponseNotFound
	}
	copied := *existing
	return &copied, nil
}

func (m *memResponseStorage) Update(_ context.Context, response *entity.Response) (*entity.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpdateFor[response.UserID] {
		return nil, fmt.Errorf("storage write failed")
	}

	stored := *response
	m.responses[response.ID] = &stored
	return response, nil
}

func (m *memResponseStorage) CountByEventIDAndStatus(_ context.Context, eventID string, status entity.ResponseStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, existing := range m.responses {
		if existing.EventID == eventID && existing.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *memResponseStorage) MaxWaitlistPosition(_ context.Context, eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	max := 0
	for _, existing := range m.responses {
		if existing.EventID == eventID && existing.Status == entity.ResponseStatusWaitlisted &&
			existing.WaitlistPosition != nil && *existing.WaitlistPosition > max {
			max = *existing.WaitlistPosition
		}
	}
	return max, nil
}

func (m *memResponseStorage) GetWaitlisted(_ context.Context, eventID string, limit int) ([]entity.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var waitlisted []entity.Response
	for _, existing := range m.responses {
		if existing.EventID == eventID && existing.Status == entity.ResponseStatusWaitlisted {
			waitlisted = append(waitlisted, *existing)
		}
	}
	sort.Slice(waitlisted, func(i, j int) bool {
		return *waitlisted[i].WaitlistPosition < *waitlisted[j].WaitlistPosition
	})
	if len(waitlisted) > limit {
		waitlisted = waitlisted[:limit]
	}
	return waitlisted, nil
}

func (m *memResponseStorage) GetByEventID(_ context.Context, eventID string, status entity.ResponseStatus, limit, offset int) ([]entity.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []entity.Response
	// Walk insertion order backwards for created-at-descending order.
	for i := len(m.order) - 1; i >= 0; i-- {
		existing := m.responses[m.order[i]]
		if existing.EventID != eventID {
			continue
		}
		if status != "" && existing.Status != status {
			continue
		}
		matched = append(matched, *existing)
	}

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memResponseStorage) GetActiveByUserID(_ context.Context, userID int64) ([]entity.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var active []entity.Response
	for _, id := range m.order {
		existing := m.responses[id]
		if existing.UserID == userID && existing.AttendingLike() {
			active = append(active, *existing)
		}
	}
	return active, nil
}

func (m *memResponseStorage) CountsByStatus(_ context.Context, eventID string) (map[entity.ResponseStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[entity.ResponseStatus]int64)
	for _, existing := range m.responses {
		if existing.EventID == eventID {
			counts[existing.Status]++
		}
	}
	return counts, nil
}

func (m *memResponseStorage) SumGuests(_ context.Context, eventID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, existing := range m.responses {
		if existing.EventID == eventID && existing.Status == entity.ResponseStatusAttending {
			total += int64(existing.GuestCount)
		}
	}
	return total, nil
}

type memEventProvider struct {
	events map[string]*entity.Event
}

func newMemEventProvider(events ...*entity.Event) *memEventProvider {
	byID := make(map[string]*entity.Event, len(events))
	for _, event := range events {
		byID[event.ID] = event
	}
	return &memEventProvider{events: byID}
}

func (m *memEventProvider) Get(_ context.Context, eventID string) (*entity.Event, error) {
	event, ok := m.events[eventID]
	if !ok {
		return nil, errorz.EventNotFound
	}
	copied := *event
	return &copied, nil
}

type memUserProvider struct {
	users map[int64]*entity.User
}

func newMemUserProvider(users ...*entity.User) *memUserProvider {
	byID := make(map[int64]*entity.User, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}
	return &memUserProvider{users: byID}
}

func (m *memUserProvider) Get(_ context.Context, userID int64) (*entity.User, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, errorz.UserNotFound
	}
	copied := *user
	return &copied, nil
}

type memJobStorage struct {
	mu     sync.Mutex
	jobs   map[string]*entity.NotificationJob
	order  []string
	nextID int
}

func newMemJobStorage() *memJobStorage {
	return &memJobStorage{jobs: make(map[string]*entity.NotificationJob)}
}

func (m *memJobStorage) Create(_ context.Context, job *entity.NotificationJob) (*entity.NotificationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	job.ID = fmt.Sprintf("job-%d", m.nextID)
	stored := *job
	m.jobs[job.ID] = &stored
	m.order = append(m.order, job.ID)
	return job, nil
}

func (m *memJobStorage) Update(_ context.Context, job *entity.NotificationJob) (*entity.NotificationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *job
	m.jobs[job.ID] = &stored
	return job, nil
}

func (m *memJobStorage) DeletePendingByResponseID(_ context.Context, responseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []string
	for _, id := range m.order {
		job := m.jobs[id]
		if job.ResponseID == responseID && job.Status == entity.JobStatusPending {
			delete(m.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return nil
}

func (m *memJobStorage) GetDue(_ context.Context, now time.Time, limit int) ([]entity.NotificationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []entity.NotificationJob
	for _, id := range m.order {
		job := m.jobs[id]
		if job.Status == entity.JobStatusPending && !job.ScheduledFor.After(now) && job.Attempts < entity.MaxSendAttempts {
			due = append(due, *job)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledFor.Before(due[j].ScheduledFor) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *memJobStorage) GetByResponseID(_ context.Context, responseID string) ([]entity.NotificationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var jobs []entity.NotificationJob
	for _, id := range m.order {
		job := m.jobs[id]
		if job.ResponseID == responseID {
			jobs = append(jobs, *job)
		}
	}
	return jobs, nil
}

func (m *memJobStorage) RequeueFailed(_ context.Context, responseID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var requeued int64
	for _, job := range m.jobs {
		if job.ResponseID == responseID && job.Status == entity.JobStatusFailed && job.Attempts < entity.MaxSendAttempts {
			job.Status = entity.JobStatusPending
			requeued++
		}
	}
	return requeued, nil
}

func (m *memJobStorage) all() []entity.NotificationJob {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobs := make([]entity.NotificationJob, 0, len(m.order))
	for _, id := range m.order {
		jobs = append(jobs, *m.jobs[id])
	}
	return jobs
}

// recordingListener captures status changes without acting on them.
type recordingListener struct {
	changes []dto.StatusChange
}

func (r *recordingListener) OnStatusChanged(_ context.Context, change dto.StatusChange) {
	r.changes = append(r.changes, change)
}

type recordedEmail struct {
	to, subject, body string
}

type fakeEmailSender struct {
	sent   []recordedEmail
	failTo map[string]bool
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{failTo: make(map[string]bool)}
}

func (f *fakeEmailSender) Send(to, subject, body string) (string, error) {
	if f.failTo[to] {
		return "", fmt.Errorf("smtp rejected recipient")
	}
	f.sent = append(f.sent, recordedEmail{to: to, subject: subject, body: body})
	return fmt.Sprintf("<message-%d>", len(f.sent)), nil
}

type fakeInbox struct {
	pushed map[int64][]inbox.Message
}

func newFakeInbox() *fakeInbox {
	return &fakeInbox{pushed: make(map[int64][]inbox.Message)}
}

func (f *fakeInbox) Push(_ context.Context, userID int64, message inbox.Message) error {
	f.pushed[userID] = append(f.pushed[userID], message)
	return nil
}

type stubRenderer struct{}

func (stubRenderer) Render(kind string, _ *entity.Response, event *entity.Event, _ *entity.User) (string, string) {
	return kind, fmt.Sprintf("%s for %s", kind, event.Name)
}
