package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
)

type fakeLedger struct {
	alreadyPublished bool
	ensureErr        error
	attemptErr       error
	publishedErr     error
	failedErr        error

	ensureCalls    int
	attemptCalls   int
	publishedCalls []uuid.UUID
	failedCalls    []uuid.UUID
	lastFailure    error
}

func (f *fakeLedger) EnsureDeliveryRecord(ctx context.Context, event Event) (bool, error) {
	f.ensureCalls++
	return f.alreadyPublished, f.ensureErr
}

func (f *fakeLedger) MarkAttempt(ctx context.Context, eventID uuid.UUID) error {
	f.attemptCalls++
	return f.attemptErr
}

func (f *fakeLedger) MarkPublished(ctx context.Context, eventID uuid.UUID) error {
	f.publishedCalls = append(f.publishedCalls, eventID)
	return f.publishedErr
}

func (f *fakeLedger) MarkFailed(ctx context.Context, eventID uuid.UUID, cause error) error {
	f.failedCalls = append(f.failedCalls, eventID)
	f.lastFailure = cause
	return f.failedErr
}

type fakePublisher struct {
	err   error
	calls int
}

func (f *fakePublisher) Publish(ctx context.Context, event Event) error {
	f.calls++
	return f.err
}

func (f *fakePublisher) PublishBatch(ctx context.Context, events []Event) error {
	f.calls += len(events)
	return f.err
}

func newCoordinatorForTest(t *testing.T, ledger *fakeLedger, pub *fakePublisher) *Coordinator {
	t.Helper()
	coordinator, err := NewCoordinator(CoordinatorParams{
		Ledger:    ledger,
		Publisher: pub,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("NewCoordinator returned error: %v", err)
	}
	return coordinator
}

func coordinatorTestEvent(t *testing.T) Event {
	t.Helper()
	event, err := New(enums.EventAircraftStatusChanged, "aerotrack.test", map[string]string{
		"toPhase": "certification",
	}, ActorRef{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return event
}

func TestNewCoordinatorValidation(t *testing.T) {
	ledger := &fakeLedger{}
	pub := &fakePublisher{}
	logg := testLogger()

	cases := []struct {
		name   string
		params CoordinatorParams
	}{
		{"missing ledger", CoordinatorParams{Publisher: pub, Logger: logg}},
		{"missing publisher", CoordinatorParams{Ledger: ledger, Logger: logg}},
		{"missing logger", CoordinatorParams{Ledger: ledger, Publisher: pub}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewCoordinator(tc.params); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}

func TestPublishSafelyHappyPath(t *testing.T) {
	ledger := &fakeLedger{}
	pub := &fakePublisher{}
	coordinator := newCoordinatorForTest(t, ledger, pub)

	event := coordinatorTestEvent(t)
	coordinator.PublishSafely(context.Background(), event)

	if ledger.attemptCalls != 1 {
		t.Errorf("attempt calls = %d, want 1", ledger.attemptCalls)
	}
	if pub.calls != 1 {
		t.Errorf("publish calls = %d, want 1", pub.calls)
	}
	if len(ledger.publishedCalls) != 1 || ledger.publishedCalls[0] != event.ID {
		t.Errorf("MarkPublished not called for %s", event.ID)
	}
	if len(ledger.failedCalls) != 0 {
		t.Errorf("unexpected MarkFailed calls: %v", ledger.failedCalls)
	}
}

func TestPublishSafelySkipsAlreadyPublished(t *testing.T) {
	ledger := &fakeLedger{alreadyPublished: true}
	pub := &fakePublisher{}
	coordinator := newCoordinatorForTest(t, ledger, pub)

	coordinator.PublishSafely(context.Background(), coordinatorTestEvent(t))

	if pub.calls != 0 {
		t.Errorf("publish calls = %d, want 0", pub.calls)
	}
	if ledger.attemptCalls != 0 {
		t.Errorf("attempt calls = %d, want 0", ledger.attemptCalls)
	}
}

func TestPublishSafelyRecordsFailure(t *testing.T) {
	ledger := &fakeLedger{}
	pub := &fakePublisher{err: errors.New("bus unavailable")}
	coordinator := newCoordinatorForTest(t, ledger, pub)

	event := coordinatorTestEvent(t)
	coordinator.PublishSafely(context.Background(), event)

	if len(ledger.failedCalls) != 1 || ledger.failedCalls[0] != event.ID {
		t.Fatalf("MarkFailed not called for %s", event.ID)
	}
	if ledger.lastFailure == nil || ledger.lastFailure.Error() != "bus unavailable" {
		t.Errorf("failure cause = %v", ledger.lastFailure)
	}
	if len(ledger.publishedCalls) != 0 {
		t.Errorf("unexpected MarkPublished calls: %v", ledger.publishedCalls)
	}
}

func TestPublishSafelyAbsorbsLedgerErrors(t *testing.T) {
	cases := []struct {
		name   string
		ledger *fakeLedger
	}{
		{"ensure fails", &fakeLedger{ensureErr: errors.New("db down")}},
		{"attempt fails", &fakeLedger{attemptErr: errors.New("db down")}},
		{"mark published fails", &fakeLedger{publishedErr: errors.New("db down")}},
		{"mark failed fails", &fakeLedger{failedErr: errors.New("db down")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pubErr := error(nil)
			if tc.name == "mark failed fails" {
				pubErr = errors.New("publish boom")
			}
			pub := &fakePublisher{err: pubErr}
			coordinator := newCoordinatorForTest(t, tc.ledger, pub)

			// Must not panic or propagate any error.
			coordinator.PublishSafely(context.Background(), coordinatorTestEvent(t))
		})
	}
}

func TestPublishSafelyNilContext(t *testing.T) {
	ledger := &fakeLedger{}
	pub := &fakePublisher{}
	coordinator := newCoordinatorForTest(t, ledger, pub)

	coordinator.PublishSafely(nil, coordinatorTestEvent(t)) //nolint:staticcheck
	if pub.calls != 1 {
		t.Errorf("publish calls = %d, want 1", pub.calls)
	}
}
