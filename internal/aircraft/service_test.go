package aircraft

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aerotrack-io/aerotrack-backend/internal/audit"
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
	pkgerrors "github.com/aerotrack-io/aerotrack-backend/pkg/errors"
	"github.com/aerotrack-io/aerotrack-backend/pkg/events"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
	"github.com/aerotrack-io/aerotrack-backend/pkg/pagination"
)

type captureCoordinator struct {
	events []events.Event
}

func (c *captureCoordinator) PublishSafely(_ context.Context, event events.Event) {
	c.events = append(c.events, event)
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func serviceTestLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "aircraft-test",
		Level:       zerolog.ErrorLevel,
		Output:      io.Discard,
	})
}

func setupService(t *testing.T) (Service, *gorm.DB, *captureCoordinator) {
	t.Helper()

	db := setupAircraftTestDB(t)
	auditLogs := `
CREATE TABLE IF NOT EXISTS audit_logs (
  id TEXT PRIMARY KEY,
  actor_id TEXT,
  actor_email TEXT,
  action TEXT NOT NULL,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  detail TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(auditLogs).Error)

	logg := serviceTestLogger()
	recorder, err := audit.NewRecorder(db, logg)
	require.NoError(t, err)

	coordinator := &captureCoordinator{}
	svc, err := NewService(ServiceParams{
		Repository:  NewRepository(db),
		Tx:          testTxRunner{db: db},
		Audit:       recorder,
		Coordinator: coordinator,
		Logger:      logg,
		EventSource: "aerotrack.test",
	})
	require.NoError(t, err)
	return svc, db, coordinator
}

func testActor() Actor {
	return Actor{Email: "ops@aerotrack.io", Role: enums.RoleInternal}
}

func TestServiceCreate_seedsChildren(t *testing.T) {
	svc, db, coordinator := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		TailNumber:   "n250ua",
		Model:        enums.ModelAlia250,
		CustomerName: "United Therapeutics",
		Actor:        testActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, "N250UA", created.TailNumber)
	assert.Equal(t, enums.PhaseManufacturing, created.Phase)
	assert.Equal(t, DefaultProgressFor(enums.PhaseManufacturing), created.Progress)

	repo := NewRepository(db)
	stages, err := repo.ListLifecycleStages(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, stages, len(enums.AllPhases()))
	assert.Equal(t, enums.MilestoneInProgress, stages[0].Status)
	assert.Equal(t, enums.MilestoneUpcoming, stages[1].Status)

	milestones, err := repo.ListMilestones(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, milestones, 10)

	fetched, err := repo.FindByID(ctx, internalScope(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Sustainability)
	assert.Equal(t, SustainabilityFor(enums.ModelAlia250).CO2SavedKg, fetched.Sustainability.CO2SavedKg)

	require.Len(t, coordinator.events, 1)
	assert.Equal(t, enums.EventAircraftCreated, coordinator.events[0].Type)
	assert.Equal(t, "aerotrack.test", coordinator.events[0].Source)

	recorder, err := audit.NewRecorder(db, serviceTestLogger())
	require.NoError(t, err)
	trail, err := recorder.ListForEntity(ctx, "aircraft", created.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "aircraft.create", trail[0].Action)
}

func TestServiceCreate_duplicateTailNumber(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	input := CreateInput{
		TailNumber:   "N250UA",
		Model:        enums.ModelAlia250,
		CustomerName: "United Therapeutics",
		Actor:        testActor(),
	}
	_, err := svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = svc.Create(ctx, input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestServiceCreate_validation(t *testing.T) {
	svc, _, coordinator := setupService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{name: "missing tail number", input: CreateInput{Model: enums.ModelAlia250, CustomerName: "Acme"}},
		{name: "unknown model", input: CreateInput{TailNumber: "N1", Model: enums.AircraftModel("B-747"), CustomerName: "Acme"}},
		{name: "missing customer", input: CreateInput{TailNumber: "N1", Model: enums.ModelAlia250}},
		{name: "progress out of range", input: CreateInput{TailNumber: "N1", Model: enums.ModelAlia250, CustomerName: "Acme", Progress: intPtr(101)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
	assert.Empty(t, coordinator.events)
}

func TestServiceUpdateStatus_advance(t *testing.T) {
	svc, _, coordinator := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		TailNumber:   "N250UA",
		Model:        enums.ModelAlia250,
		CustomerName: "United Therapeutics",
		Phase:        enums.PhaseManufacturing,
		Progress:     intPtr(40),
		Actor:        testActor(),
	})
	require.NoError(t, err)
	coordinator.events = nil

	result, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		AircraftID:  created.ID,
		TargetPhase: enums.PhaseGroundTesting,
		Actor:       testActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PhaseManufacturing, result.FromPhase)
	assert.Equal(t, enums.PhaseGroundTesting, result.ToPhase)
	assert.Zero(t, result.Aircraft.Progress)

	require.Len(t, coordinator.events, 1)
	assert.Equal(t, enums.EventAircraftStatusChanged, coordinator.events[0].Type)

	timeline, err := svc.Timeline(ctx, internalScope(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MilestoneCompleted, timeline[0].Status)
	assert.Equal(t, enums.MilestoneInProgress, timeline[1].Status)
}

func TestServiceUpdateStatus_gateBlocksAdvance(t *testing.T) {
	svc, _, coordinator := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		TailNumber:   "N250UA",
		Model:        enums.ModelAlia250,
		CustomerName: "United Therapeutics",
		Phase:        enums.PhaseManufacturing,
		Progress:     intPtr(10),
		Actor:        testActor(),
	})
	require.NoError(t, err)
	coordinator.events = nil

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		AircraftID:  created.ID,
		TargetPhase: enums.PhaseGroundTesting,
		Actor:       testActor(),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Empty(t, coordinator.events)
}

func TestServiceUpdateStatus_delivery(t *testing.T) {
	svc, _, coordinator := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		TailNumber:   "N250UA",
		Model:        enums.ModelAlia250,
		CustomerName: "United Therapeutics",
		Phase:        enums.PhaseReadyForDelivery,
		Progress:     intPtr(98),
		Actor:        testActor(),
	})
	require.NoError(t, err)
	coordinator.events = nil

	result, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		AircraftID:  created.ID,
		TargetPhase: enums.PhaseDelivered,
		Actor:       testActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Aircraft.Progress)
	require.NotNil(t, result.Aircraft.DeliveredAt)

	timeline, err := svc.Timeline(ctx, internalScope(), created.ID)
	require.NoError(t, err)
	for _, stage := range timeline {
		assert.Equal(t, enums.MilestoneCompleted, stage.Status)
	}

	// Delivered is terminal.
	coordinator.events = nil
	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		AircraftID:  created.ID,
		TargetPhase: enums.PhaseReadyForDelivery,
		Actor:       testActor(),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Empty(t, coordinator.events)

	unchanged, err := svc.Get(ctx, internalScope(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PhaseDelivered, unchanged.Phase)
	assert.NotNil(t, unchanged.DeliveredAt)
}

func TestServiceUpdateStatus_progressOnly(t *testing.T) {
	svc, _, coordinator := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		TailNumber:   "N250UA",
		Model:        enums.ModelAlia250,
		CustomerName: "United Therapeutics",
		Phase:        enums.PhaseFlightTesting,
		Progress:     intPtr(50),
		Actor:        testActor(),
	})
	require.NoError(t, err)
	coordinator.events = nil

	result, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		AircraftID:  created.ID,
		TargetPhase: enums.PhaseFlightTesting,
		Progress:    intPtr(75),
		Actor:       testActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, 75, result.Aircraft.Progress)

	// Same-phase updates publish nothing.
	assert.Empty(t, coordinator.events)
}

func TestServiceUpdateMilestone(t *testing.T) {
	svc, _, coordinator := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		TailNumber:   "N250UA",
		Model:        enums.ModelAlia250,
		CustomerName: "United Therapeutics",
		Phase:        enums.PhaseCertification,
		Actor:        testActor(),
	})
	require.NoError(t, err)
	coordinator.events = nil

	milestones, err := svc.Certifications(ctx, internalScope(), created.ID)
	require.NoError(t, err)
	require.Len(t, milestones, 10)

	result, err := svc.UpdateMilestone(ctx, UpdateMilestoneInput{
		AircraftID:  created.ID,
		MilestoneID: milestones[0].ID,
		Completed:   true,
		Actor:       testActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.MilestoneCompleted, result.Milestone.Status)
	require.NotNil(t, result.Milestone.CompletedAt)
	assert.Equal(t, 10, result.Progress)

	// Certification-phase aircraft track milestone progress directly.
	fetched, err := svc.Get(ctx, internalScope(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, fetched.Progress)

	require.Len(t, coordinator.events, 1)
	assert.Equal(t, enums.EventMilestoneUpdated, coordinator.events[0].Type)

	// Toggling back off clears the completion timestamp.
	result, err = svc.UpdateMilestone(ctx, UpdateMilestoneInput{
		AircraftID:  created.ID,
		MilestoneID: milestones[0].ID,
		Completed:   false,
		Actor:       testActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.MilestoneUpcoming, result.Milestone.Status)
	assert.Nil(t, result.Milestone.CompletedAt)
	assert.Zero(t, result.Progress)
}

func TestServiceGet_notFoundAndScope(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		TailNumber:   "N250UA",
		Model:        enums.ModelAlia250,
		CustomerName: "United Therapeutics",
		Actor:        testActor(),
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, customerScope("Air New Zealand"), created.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	found, err := svc.Get(ctx, customerScope("United Therapeutics"), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestServiceDashboardSummary(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		TailNumber:   "N250UA",
		Model:        enums.ModelAlia250,
		CustomerName: "United Therapeutics",
		Phase:        enums.PhaseCertification,
		Actor:        testActor(),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{
		TailNumber:   "N100AX",
		Model:        enums.ModelAlia250C,
		CustomerName: "Air New Zealand",
		Phase:        enums.PhaseReadyForDelivery,
		Actor:        testActor(),
	})
	require.NoError(t, err)

	summary, err := svc.DashboardSummary(ctx, internalScope())
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalAircraft)
	assert.Equal(t, int64(1), summary.InCertification)
	assert.Equal(t, int64(1), summary.UpcomingDeliveries)
	assert.Len(t, summary.ByPhase, len(enums.AllPhases()))
	expectedCO2 := SustainabilityFor(enums.ModelAlia250).CO2SavedKg + SustainabilityFor(enums.ModelAlia250C).CO2SavedKg
	assert.InDelta(t, expectedCO2, summary.TotalCO2SavedKg, 0.01)

	scoped, err := svc.DashboardSummary(ctx, customerScope("Air New Zealand"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), scoped.TotalAircraft)
	assert.InDelta(t, SustainabilityFor(enums.ModelAlia250C).CO2SavedKg, scoped.TotalCO2SavedKg, 0.01)
}

func TestServiceImport_partialFailure(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	rows := []ImportRow{
		{TailNumber: "N250UA", Model: "ALIA-250", CustomerName: "United Therapeutics"},
		{TailNumber: "N100AX", Model: "B-747", CustomerName: "Air New Zealand"},
		{TailNumber: "N250UA", Model: "ALIA-250", CustomerName: "United Therapeutics"},
		{TailNumber: "N300AX", Model: "ALIA-250C", CustomerName: "Air New Zealand", Phase: "flight_testing"},
	}

	result, err := svc.Import(ctx, testActor(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, 3, result.Errors[1].Row)

	fetched, err := svc.List(ctx, internalScope(), ListFilter{}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetched.Page.TotalItems)
}

func TestServiceImport_emptyRejected(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.Import(context.Background(), testActor(), nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func intPtr(v int) *int {
	return &v
}
