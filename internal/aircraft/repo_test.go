package aircraft

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aerotrack-io/aerotrack-backend/pkg/db/models"
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
	"github.com/aerotrack-io/aerotrack-backend/pkg/pagination"
)

func setupAircraftTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	aircraft := `
CREATE TABLE IF NOT EXISTS aircraft (
  id TEXT PRIMARY KEY,
  tail_number TEXT NOT NULL UNIQUE,
  model TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  phase TEXT NOT NULL,
  progress INTEGER NOT NULL DEFAULT 0,
  est_delivery DATETIME,
  delivered_at DATETIME,
  serial_number TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	stages := `
CREATE TABLE IF NOT EXISTS lifecycle_stages (
  id TEXT PRIMARY KEY,
  aircraft_id TEXT NOT NULL,
  stage TEXT NOT NULL,
  stage_order INTEGER NOT NULL,
  status TEXT NOT NULL,
  started_at DATETIME,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	milestones := `
CREATE TABLE IF NOT EXISTS certification_milestones (
  id TEXT PRIMARY KEY,
  aircraft_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  sequence INTEGER NOT NULL,
  status TEXT NOT NULL,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	sustainability := `
CREATE TABLE IF NOT EXISTS sustainability_metrics (
  id TEXT PRIMARY KEY,
  aircraft_id TEXT NOT NULL UNIQUE,
  co2_saved_kg REAL NOT NULL DEFAULT 0,
  noise_reduction_db REAL NOT NULL DEFAULT 0,
  energy_per_flight_kwh REAL NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(aircraft).Error)
	require.NoError(t, db.Exec(stages).Error)
	require.NoError(t, db.Exec(milestones).Error)
	require.NoError(t, db.Exec(sustainability).Error)
	return db
}

func newAircraft(t *testing.T, db *gorm.DB, tail, customer string, phase enums.AircraftPhase, progress int) *models.Aircraft {
	t.Helper()

	row := &models.Aircraft{
		ID:           uuid.New(),
		TailNumber:   tail,
		Model:        enums.ModelAlia250,
		CustomerName: customer,
		Phase:        phase,
		Progress:     progress,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func newSustainability(t *testing.T, db *gorm.DB, aircraftID uuid.UUID, co2 float64) {
	t.Helper()

	row := &models.SustainabilityMetrics{
		ID:         uuid.New(),
		AircraftID: aircraftID,
		CO2SavedKg: co2,
	}
	require.NoError(t, db.Create(row).Error)
}

func internalScope() Scope {
	return Scope{Role: enums.RoleInternal}
}

func customerScope(name string) Scope {
	return Scope{Role: enums.RoleCustomer, CustomerName: &name}
}

func TestRepositoryList_customerScope(t *testing.T) {
	db := setupAircraftTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newAircraft(t, db, "N250UA", "United Therapeutics", enums.PhaseFlightTesting, 40)
	newAircraft(t, db, "N251UA", "United Therapeutics", enums.PhaseManufacturing, 10)
	newAircraft(t, db, "N100AX", "Air New Zealand", enums.PhaseCertification, 80)

	rows, total, err := repo.List(ctx, customerScope("United Therapeutics"), ListFilter{}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "United Therapeutics", row.CustomerName)
	}

	rows, total, err = repo.List(ctx, internalScope(), ListFilter{}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, rows, 3)
}

func TestRepositoryList_filtersAndSearch(t *testing.T) {
	db := setupAircraftTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newAircraft(t, db, "N250UA", "United Therapeutics", enums.PhaseFlightTesting, 40)
	newAircraft(t, db, "N100AX", "Air New Zealand", enums.PhaseCertification, 80)
	newAircraft(t, db, "N200AX", "Air New Zealand", enums.PhaseFlightTesting, 55)

	phase := enums.PhaseFlightTesting
	rows, total, err := repo.List(ctx, internalScope(), ListFilter{Phase: &phase}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)

	rows, total, err = repo.List(ctx, internalScope(), ListFilter{Search: "zealand"}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)

	rows, total, err = repo.List(ctx, internalScope(), ListFilter{Search: "N250"}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "N250UA", rows[0].TailNumber)

	require.NoError(t, db.Model(&models.Aircraft{}).
		Where("tail_number = ?", "N100AX").
		Update("model", enums.ModelAlia250C).Error)

	model := enums.ModelAlia250C
	rows, total, err = repo.List(ctx, internalScope(), ListFilter{Model: &model}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "N100AX", rows[0].TailNumber)
}

func TestRepositoryList_sorting(t *testing.T) {
	db := setupAircraftTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newAircraft(t, db, "N300CC", "Charlie", enums.PhaseManufacturing, 10)
	newAircraft(t, db, "N100AA", "Alpha", enums.PhaseManufacturing, 30)
	newAircraft(t, db, "N200BB", "Bravo", enums.PhaseManufacturing, 20)

	rows, _, err := repo.List(ctx, internalScope(), ListFilter{SortBy: "tailNumber", SortDir: "asc"}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "N100AA", rows[0].TailNumber)
	assert.Equal(t, "N300CC", rows[2].TailNumber)

	rows, _, err = repo.List(ctx, internalScope(), ListFilter{SortBy: "progress", SortDir: "desc"}, pagination.Params{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 30, rows[0].Progress)
	assert.Equal(t, 10, rows[2].Progress)
}

func TestRepositoryFindByID_scoped(t *testing.T) {
	db := setupAircraftTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	mine := newAircraft(t, db, "N250UA", "United Therapeutics", enums.PhaseFlightTesting, 40)
	theirs := newAircraft(t, db, "N100AX", "Air New Zealand", enums.PhaseCertification, 80)

	found, err := repo.FindByID(ctx, customerScope("United Therapeutics"), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.TailNumber, found.TailNumber)

	_, err = repo.FindByID(ctx, customerScope("United Therapeutics"), theirs.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryCountByPhase_includesZeroPhases(t *testing.T) {
	db := setupAircraftTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newAircraft(t, db, "N250UA", "United Therapeutics", enums.PhaseFlightTesting, 40)
	newAircraft(t, db, "N251UA", "United Therapeutics", enums.PhaseFlightTesting, 55)
	newAircraft(t, db, "N100AX", "Air New Zealand", enums.PhaseDelivered, 100)

	counts, err := repo.CountByPhase(ctx, internalScope())
	require.NoError(t, err)
	require.Len(t, counts, len(enums.AllPhases()))

	byPhase := map[enums.AircraftPhase]int64{}
	for _, count := range counts {
		byPhase[count.Phase] = count.Count
	}
	assert.Equal(t, int64(2), byPhase[enums.PhaseFlightTesting])
	assert.Equal(t, int64(1), byPhase[enums.PhaseDelivered])
	assert.Equal(t, int64(0), byPhase[enums.PhaseCertification])
}

func TestRepositoryAggregates(t *testing.T) {
	db := setupAircraftTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	a := newAircraft(t, db, "N250UA", "United Therapeutics", enums.PhaseReadyForDelivery, 90)
	b := newAircraft(t, db, "N100AX", "Air New Zealand", enums.PhaseFlightTesting, 50)
	newSustainability(t, db, a.ID, 1350)
	newSustainability(t, db, b.ID, 1480)

	avg, err := repo.AverageProgress(ctx, internalScope())
	require.NoError(t, err)
	assert.InDelta(t, 70.0, avg, 0.01)

	co2, err := repo.SumCO2Saved(ctx, internalScope())
	require.NoError(t, err)
	assert.InDelta(t, 2830.0, co2, 0.01)

	co2, err = repo.SumCO2Saved(ctx, customerScope("Air New Zealand"))
	require.NoError(t, err)
	assert.InDelta(t, 1480.0, co2, 0.01)

	upcoming, err := repo.CountUpcomingDeliveries(ctx, internalScope())
	require.NoError(t, err)
	assert.Equal(t, int64(1), upcoming)
}

func TestRepositoryAggregates_emptyFleet(t *testing.T) {
	db := setupAircraftTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	avg, err := repo.AverageProgress(ctx, internalScope())
	require.NoError(t, err)
	assert.Zero(t, avg)

	co2, err := repo.SumCO2Saved(ctx, internalScope())
	require.NoError(t, err)
	assert.Zero(t, co2)
}

func TestRepositoryMilestones(t *testing.T) {
	db := setupAircraftTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	aircraft := newAircraft(t, db, "N250UA", "United Therapeutics", enums.PhaseCertification, 80)

	seed := make([]models.CertificationMilestone, 0, 3)
	for i, name := range []string{"First Flight", "Type Certification", "Design Review Complete"} {
		seed = append(seed, models.CertificationMilestone{
			ID:         uuid.New(),
			AircraftID: aircraft.ID,
			Name:       name,
			Sequence:   3 - i,
			Status:     enums.MilestoneUpcoming,
		})
	}
	require.NoError(t, repo.CreateMilestones(ctx, seed))

	listed, err := repo.ListMilestones(ctx, aircraft.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "Design Review Complete", listed[0].Name)
	assert.Equal(t, 1, listed[0].Sequence)

	found, err := repo.FindMilestone(ctx, aircraft.ID, listed[1].ID)
	require.NoError(t, err)
	assert.Equal(t, listed[1].Name, found.Name)

	now := time.Now().UTC()
	found.Status = enums.MilestoneCompleted
	found.CompletedAt = &now
	require.NoError(t, repo.UpdateMilestone(ctx, found))

	refetched, err := repo.FindMilestone(ctx, aircraft.ID, found.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MilestoneCompleted, refetched.Status)
	require.NotNil(t, refetched.CompletedAt)

	_, err = repo.FindMilestone(ctx, uuid.New(), found.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryLifecycleStages_ordered(t *testing.T) {
	db := setupAircraftTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	aircraft := newAircraft(t, db, "N250UA", "United Therapeutics", enums.PhaseFlightTesting, 40)

	stages := buildLifecycleStages(aircraft.ID, aircraft.Phase)
	require.NoError(t, repo.CreateLifecycleStages(ctx, stages))

	listed, err := repo.ListLifecycleStages(ctx, aircraft.ID)
	require.NoError(t, err)
	require.Len(t, listed, len(enums.AllPhases()))
	assert.Equal(t, enums.PhaseManufacturing, listed[0].Stage)
	assert.Equal(t, enums.MilestoneCompleted, listed[0].Status)
	assert.Equal(t, enums.PhaseFlightTesting, listed[2].Stage)
	assert.Equal(t, enums.MilestoneInProgress, listed[2].Status)
	assert.Equal(t, enums.MilestoneUpcoming, listed[3].Status)
}
