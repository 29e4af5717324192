package aircraft

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aerotrack-io/aerotrack-backend/pkg/db/models"
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
	"github.com/aerotrack-io/aerotrack-backend/pkg/pagination"
)

// Repository is the persistence surface for the fleet.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, aircraft *models.Aircraft) (*models.Aircraft, error)
	CreateLifecycleStages(ctx context.Context, stages []models.LifecycleStage) error
	CreateMilestones(ctx context.Context, milestones []models.CertificationMilestone) error
	CreateSustainability(ctx context.Context, metrics *models.SustainabilityMetrics) error

	FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*models.Aircraft, error)
	FindByTailNumber(ctx context.Context, tailNumber string) (*models.Aircraft, error)
	List(ctx context.Context, scope Scope, filter ListFilter, params pagination.Params) ([]models.Aircraft, int64, error)
	ListLifecycleStages(ctx context.Context, aircraftID uuid.UUID) ([]models.LifecycleStage, error)
	ListMilestones(ctx context.Context, aircraftID uuid.UUID) ([]models.CertificationMilestone, error)
	FindMilestone(ctx context.Context, aircraftID, milestoneID uuid.UUID) (*models.CertificationMilestone, error)

	UpdateAircraft(ctx context.Context, aircraft *models.Aircraft) error
	UpdateLifecycleStage(ctx context.Context, stage *models.LifecycleStage) error
	UpdateMilestone(ctx context.Context, milestone *models.CertificationMilestone) error

	CountByPhase(ctx context.Context, scope Scope) ([]PhaseCount, error)
	AverageProgress(ctx context.Context, scope Scope) (float64, error)
	SumCO2Saved(ctx context.Context, scope Scope) (float64, error)
	CountUpcomingDeliveries(ctx context.Context, scope Scope) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fleet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// scoped applies customer visibility to a query.
func scoped(q *gorm.DB, scope Scope) *gorm.DB {
	if scope.Role == enums.RoleCustomer && scope.CustomerName != nil {
		return q.Where("customer_name = ?", *scope.CustomerName)
	}
	return q
}

func (r *repository) Create(ctx context.Context, aircraft *models.Aircraft) (*models.Aircraft, error) {
	if err := r.db.WithContext(ctx).Create(aircraft).Error; err != nil {
		return nil, err
	}
	return aircraft, nil
}

func (r *repository) CreateLifecycleStages(ctx context.Context, stages []models.LifecycleStage) error {
	if len(stages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&stages).Error
}

func (r *repository) CreateMilestones(ctx context.Context, milestones []models.CertificationMilestone) error {
	if len(milestones) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&milestones).Error
}

func (r *repository) CreateSustainability(ctx context.Context, metrics *models.SustainabilityMetrics) error {
	return r.db.WithContext(ctx).Create(metrics).Error
}

func (r *repository) FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*models.Aircraft, error) {
	var aircraft models.Aircraft
	err := scoped(r.db.WithContext(ctx), scope).
		Preload("Sustainability").
		Where("id = ?", id).
		First(&aircraft).Error
	if err != nil {
		return nil, err
	}
	return &aircraft, nil
}

func (r *repository) FindByTailNumber(ctx context.Context, tailNumber string) (*models.Aircraft, error) {
	var aircraft models.Aircraft
	err := r.db.WithContext(ctx).
		Where("tail_number = ?", tailNumber).
		First(&aircraft).Error
	if err != nil {
		return nil, err
	}
	return &aircraft, nil
}

// sortColumns whitelists client-facing sort keys.
var sortColumns = map[string]string{
	"tailNumber":   "tail_number",
	"customerName": "customer_name",
	"phase":        "phase",
	"progress":     "progress",
	"estDelivery":  "est_delivery",
	"createdAt":    "created_at",
}

func (r *repository) List(ctx context.Context, scope Scope, filter ListFilter, params pagination.Params) ([]models.Aircraft, int64, error) {
	q := scoped(r.db.WithContext(ctx).Model(&models.Aircraft{}), scope)

	if filter.Phase != nil {
		q = q.Where("phase = ?", *filter.Phase)
	}
	if filter.Model != nil {
		q = q.Where("model = ?", *filter.Model)
	}
	if filter.CustomerName != nil && scope.Role == enums.RoleInternal {
		q = q.Where("customer_name = ?", *filter.CustomerName)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(tail_number) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(serial_number) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if strings.EqualFold(filter.SortDir, "desc") {
		direction = "DESC"
	}

	var rows []models.Aircraft
	err := q.
		Order(column + " " + direction).
		Limit(params.Limit()).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) ListLifecycleStages(ctx context.Context, aircraftID uuid.UUID) ([]models.LifecycleStage, error) {
	var stages []models.LifecycleStage
	err := r.db.WithContext(ctx).
		Where("aircraft_id = ?", aircraftID).
		Order("stage_order ASC").
		Find(&stages).Error
	if err != nil {
		return nil, err
	}
	return stages, nil
}

func (r *repository) ListMilestones(ctx context.Context, aircraftID uuid.UUID) ([]models.CertificationMilestone, error) {
	var milestones []models.CertificationMilestone
	err := r.db.WithContext(ctx).
		Where("aircraft_id = ?", aircraftID).
		Order("sequence ASC").
		Find(&milestones).Error
	if err != nil {
		return nil, err
	}
	return milestones, nil
}

func (r *repository) FindMilestone(ctx context.Context, aircraftID, milestoneID uuid.UUID) (*models.CertificationMilestone, error) {
	var milestone models.CertificationMilestone
	err := r.db.WithContext(ctx).
		Where("id = ? AND aircraft_id = ?", milestoneID, aircraftID).
		First(&milestone).Error
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (r *repository) UpdateAircraft(ctx context.Context, aircraft *models.Aircraft) error {
	return r.db.WithContext(ctx).Save(aircraft).Error
}

func (r *repository) UpdateLifecycleStage(ctx context.Context, stage *models.LifecycleStage) error {
	return r.db.WithContext(ctx).Save(stage).Error
}

func (r *repository) UpdateMilestone(ctx context.Context, milestone *models.CertificationMilestone) error {
	return r.db.WithContext(ctx).Save(milestone).Error
}

func (r *repository) CountByPhase(ctx context.Context, scope Scope) ([]PhaseCount, error) {
	type phaseRow struct {
		Phase enums.AircraftPhase
		Count int64
	}
	var rows []phaseRow
	err := scoped(r.db.WithContext(ctx).Model(&models.Aircraft{}), scope).
		Select("phase, COUNT(*) AS count").
		Group("phase").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byPhase := make(map[enums.AircraftPhase]int64, len(rows))
	for _, row := range rows {
		byPhase[row.Phase] = row.Count
	}

	// Every phase appears in the breakdown, zero counts included.
	counts := make([]PhaseCount, 0, len(enums.AllPhases()))
	for _, phase := range enums.AllPhases() {
		counts = append(counts, PhaseCount{
			Phase: phase,
			Label: phase.Display(),
			Count: byPhase[phase],
		})
	}
	return counts, nil
}

func (r *repository) AverageProgress(ctx context.Context, scope Scope) (float64, error) {
	var avg *float64
	err := scoped(r.db.WithContext(ctx).Model(&models.Aircraft{}), scope).
		Select("AVG(progress)").
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (r *repository) SumCO2Saved(ctx context.Context, scope Scope) (float64, error) {
	var sum *float64
	q := r.db.WithContext(ctx).
		Model(&models.SustainabilityMetrics{}).
		Joins("JOIN aircraft ON aircraft.id = sustainability_metrics.aircraft_id")
	if scope.Role == enums.RoleCustomer && scope.CustomerName != nil {
		q = q.Where("aircraft.customer_name = ?", *scope.CustomerName)
	}
	err := q.Select("SUM(sustainability_metrics.co2_saved_kg)").Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *repository) CountUpcomingDeliveries(ctx context.Context, scope Scope) (int64, error) {
	var count int64
	err := scoped(r.db.WithContext(ctx).Model(&models.Aircraft{}), scope).
		Where("phase = ?", enums.PhaseReadyForDelivery).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
