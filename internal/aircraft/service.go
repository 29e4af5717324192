package aircraft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aerotrack-io/aerotrack-backend/internal/audit"
	dbpkg "github.com/aerotrack-io/aerotrack-backend/pkg/db"
	"github.com/aerotrack-io/aerotrack-backend/pkg/db/models"
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
	pkgerrors "github.com/aerotrack-io/aerotrack-backend/pkg/errors"
	"github.com/aerotrack-io/aerotrack-backend/pkg/events"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
	"github.com/aerotrack-io/aerotrack-backend/pkg/pagination"
)

const auditEntityAircraft = "aircraft"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventCoordinator interface {
	PublishSafely(ctx context.Context, event events.Event)
}

// Service exposes the fleet operations behind the API.
type Service interface {
	DashboardSummary(ctx context.Context, scope Scope) (*DashboardSummary, error)
	List(ctx context.Context, scope Scope, filter ListFilter, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, scope Scope, id uuid.UUID) (*models.Aircraft, error)
	Timeline(ctx context.Context, scope Scope, id uuid.UUID) ([]models.LifecycleStage, error)
	Certifications(ctx context.Context, scope Scope, id uuid.UUID) ([]models.CertificationMilestone, error)
	Create(ctx context.Context, input CreateInput) (*models.Aircraft, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*StatusChangeResult, error)
	UpdateMilestone(ctx context.Context, input UpdateMilestoneInput) (*MilestoneChangeResult, error)
	Import(ctx context.Context, actor Actor, rows []ImportRow) (*ImportResult, error)
}

// ServiceParams carries the service dependencies.
type ServiceParams struct {
	Repository  Repository
	Tx          txRunner
	Audit       *audit.Recorder
	Coordinator eventCoordinator
	Logger      *logger.Logger
	EventSource string
}

type service struct {
	repo        Repository
	tx          txRunner
	audit       *audit.Recorder
	coordinator eventCoordinator
	logg        *logger.Logger
	eventSource string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, errors.New("aircraft repository is required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Audit == nil {
		return nil, errors.New("audit recorder is required")
	}
	if params.Coordinator == nil {
		return nil, errors.New("event coordinator is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	source := params.EventSource
	if source == "" {
		source = "aerotrack.backend"
	}
	return &service{
		repo:        params.Repository,
		tx:          params.Tx,
		audit:       params.Audit,
		coordinator: params.Coordinator,
		logg:        params.Logger,
		eventSource: source,
	}, nil
}

func (s *service) DashboardSummary(ctx context.Context, scope Scope) (*DashboardSummary, error) {
	counts, err := s.repo.CountByPhase(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading phase breakdown")
	}

	summary := DashboardSummary{ByPhase: counts}
	for _, count := range counts {
		summary.TotalAircraft += count.Count
		switch count.Phase {
		case enums.PhaseDelivered:
			summary.Delivered = count.Count
		case enums.PhaseCertification:
			summary.InCertification = count.Count
		}
	}

	avg, err := s.repo.AverageProgress(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading average progress")
	}
	summary.AverageProgress = avg

	co2, err := s.repo.SumCO2Saved(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sustainability totals")
	}
	summary.TotalCO2SavedKg = co2

	upcoming, err := s.repo.CountUpcomingDeliveries(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading upcoming deliveries")
	}
	summary.UpcomingDeliveries = upcoming

	return &summary, nil
}

func (s *service) List(ctx context.Context, scope Scope, filter ListFilter, params pagination.Params) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, scope, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing aircraft")
	}
	return &ListResult{
		Aircraft: rows,
		Page:     pagination.NewPage(params, total),
	}, nil
}

func (s *service) Get(ctx context.Context, scope Scope, id uuid.UUID) (*models.Aircraft, error) {
	aircraft, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "aircraft not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading aircraft")
	}
	return aircraft, nil
}

func (s *service) Timeline(ctx context.Context, scope Scope, id uuid.UUID) ([]models.LifecycleStage, error) {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return nil, err
	}
	stages, err := s.repo.ListLifecycleStages(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading timeline")
	}
	return stages, nil
}

func (s *service) Certifications(ctx context.Context, scope Scope, id uuid.UUID) ([]models.CertificationMilestone, error) {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return nil, err
	}
	milestones, err := s.repo.ListMilestones(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading certifications")
	}
	return milestones, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Aircraft, error) {
	tailNumber := strings.ToUpper(strings.TrimSpace(input.TailNumber))
	if tailNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tail number is required")
	}
	if !input.Model.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown aircraft model %q", input.Model))
	}
	customer := strings.TrimSpace(input.CustomerName)
	if customer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}

	phase := input.Phase
	if phase == "" {
		phase = enums.PhaseManufacturing
	}
	if !phase.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown phase %q", phase))
	}

	progress := DefaultProgressFor(phase)
	if input.Progress != nil {
		if *input.Progress < 0 || *input.Progress > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "progress must be between 0 and 100")
		}
		progress = *input.Progress
	}

	aircraft := &models.Aircraft{
		ID:           uuid.New(),
		TailNumber:   tailNumber,
		Model:        input.Model,
		CustomerName: customer,
		Phase:        phase,
		Progress:     progress,
		EstDelivery:  input.EstDelivery,
		SerialNumber: input.SerialNumber,
		Notes:        input.Notes,
	}
	if phase == enums.PhaseDelivered {
		now := time.Now().UTC()
		aircraft.DeliveredAt = &now
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		created, err := repo.Create(ctx, aircraft)
		if err != nil {
			if dbpkg.IsDuplicateTailNumber(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("tail number %s already exists", tailNumber))
			}
			return err
		}
		aircraft = created

		if err := repo.CreateLifecycleStages(ctx, buildLifecycleStages(aircraft.ID, phase)); err != nil {
			return err
		}
		if err := repo.CreateMilestones(ctx, buildMilestones(aircraft.ID, phase)); err != nil {
			return err
		}

		defaults := SustainabilityFor(input.Model)
		if err := repo.CreateSustainability(ctx, &models.SustainabilityMetrics{
			ID:                 uuid.New(),
			AircraftID:         aircraft.ID,
			CO2SavedKg:         defaults.CO2SavedKg,
			NoiseReductionDB:   defaults.NoiseReductionDB,
			EnergyPerFlightKWh: defaults.EnergyPerFlightKWh,
		}); err != nil {
			return err
		}

		return s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:    actorID(input.Actor),
			ActorEmail: actorEmail(input.Actor),
			Action:     "aircraft.create",
			EntityType: auditEntityAircraft,
			EntityID:   aircraft.ID,
			Detail: map[string]any{
				"tailNumber": tailNumber,
				"model":      input.Model,
				"phase":      phase,
			},
		})
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating aircraft")
	}

	s.emit(ctx, enums.EventAircraftCreated, input.Actor, createdEvent{
		AircraftID:   aircraft.ID,
		TailNumber:   aircraft.TailNumber,
		Model:        aircraft.Model,
		CustomerName: aircraft.CustomerName,
		Phase:        aircraft.Phase,
	})

	return aircraft, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*StatusChangeResult, error) {
	var result StatusChangeResult

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		aircraft, err := repo.FindByID(ctx, Scope{Role: enums.RoleInternal}, input.AircraftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "aircraft not found")
			}
			return err
		}

		fromPhase := aircraft.Phase
		if err := ValidateTransition(fromPhase, input.TargetPhase, aircraft.Progress); err != nil {
			return err
		}

		if input.TargetPhase != fromPhase {
			aircraft.Phase = input.TargetPhase
			// A fresh phase starts from zero unless the caller sets progress.
			aircraft.Progress = 0
		}
		if input.Progress != nil {
			if *input.Progress < 0 || *input.Progress > 100 {
				return pkgerrors.New(pkgerrors.CodeValidation, "progress must be between 0 and 100")
			}
			aircraft.Progress = *input.Progress
		}
		if input.TargetPhase == enums.PhaseDelivered {
			aircraft.Progress = 100
			if aircraft.DeliveredAt == nil {
				now := time.Now().UTC()
				aircraft.DeliveredAt = &now
			}
		}

		if err := repo.UpdateAircraft(ctx, aircraft); err != nil {
			return err
		}
		if err := s.recomputeStages(ctx, repo, aircraft); err != nil {
			return err
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:    actorID(input.Actor),
			ActorEmail: actorEmail(input.Actor),
			Action:     "aircraft.status.update",
			EntityType: auditEntityAircraft,
			EntityID:   aircraft.ID,
			Detail: map[string]any{
				"fromPhase": fromPhase,
				"toPhase":   aircraft.Phase,
				"progress":  aircraft.Progress,
			},
		}); err != nil {
			return err
		}

		result = StatusChangeResult{
			Aircraft:  *aircraft,
			FromPhase: fromPhase,
			ToPhase:   aircraft.Phase,
		}
		return nil
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating aircraft status")
	}

	if result.FromPhase != result.ToPhase {
		s.emit(ctx, enums.EventAircraftStatusChanged, input.Actor, statusChangedEvent{
			AircraftID:   result.Aircraft.ID,
			TailNumber:   result.Aircraft.TailNumber,
			CustomerName: result.Aircraft.CustomerName,
			FromPhase:    result.FromPhase,
			ToPhase:      result.ToPhase,
			Progress:     result.Aircraft.Progress,
		})
	}

	return &result, nil
}

func (s *service) UpdateMilestone(ctx context.Context, input UpdateMilestoneInput) (*MilestoneChangeResult, error) {
	var (
		result   MilestoneChangeResult
		aircraft *models.Aircraft
	)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindByID(ctx, Scope{Role: enums.RoleInternal}, input.AircraftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "aircraft not found")
			}
			return err
		}
		aircraft = found

		milestone, err := repo.FindMilestone(ctx, input.AircraftID, input.MilestoneID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "certification milestone not found")
			}
			return err
		}

		if input.Completed {
			milestone.Status = enums.MilestoneCompleted
			if milestone.CompletedAt == nil {
				now := time.Now().UTC()
				milestone.CompletedAt = &now
			}
		} else {
			milestone.Status = enums.MilestoneUpcoming
			milestone.CompletedAt = nil
		}
		if err := repo.UpdateMilestone(ctx, milestone); err != nil {
			return err
		}

		milestones, err := repo.ListMilestones(ctx, input.AircraftID)
		if err != nil {
			return err
		}
		completed := 0
		for _, m := range milestones {
			if m.Status == enums.MilestoneCompleted {
				completed++
			}
		}
		progress := MilestoneProgress(completed, len(milestones))

		if aircraft.Phase == enums.PhaseCertification {
			aircraft.Progress = progress
			if err := repo.UpdateAircraft(ctx, aircraft); err != nil {
				return err
			}
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:    actorID(input.Actor),
			ActorEmail: actorEmail(input.Actor),
			Action:     "aircraft.milestone.update",
			EntityType: auditEntityAircraft,
			EntityID:   input.AircraftID,
			Detail: map[string]any{
				"milestoneId": input.MilestoneID,
				"milestone":   milestone.Name,
				"completed":   input.Completed,
				"progress":    progress,
			},
		}); err != nil {
			return err
		}

		result = MilestoneChangeResult{
			Milestone: *milestone,
			Progress:  progress,
		}
		return nil
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating certification milestone")
	}

	s.emit(ctx, enums.EventMilestoneUpdated, input.Actor, milestoneUpdatedEvent{
		AircraftID:    input.AircraftID,
		TailNumber:    aircraft.TailNumber,
		MilestoneID:   result.Milestone.ID,
		MilestoneName: result.Milestone.Name,
		Completed:     input.Completed,
		Progress:      result.Progress,
	})

	return &result, nil
}

func (s *service) Import(ctx context.Context, actor Actor, rows []ImportRow) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "import requires at least one row")
	}

	result := &ImportResult{}
	for i, row := range rows {
		input, err := importRowToInput(actor, row)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: i + 1, Message: err.Error()})
			continue
		}
		if _, err := s.Create(ctx, input); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportRowError{Row: i + 1, Message: err.Error()})
			continue
		}
		result.Imported++
	}
	return result, nil
}

func importRowToInput(actor Actor, row ImportRow) (CreateInput, error) {
	model, err := enums.ParseAircraftModel(strings.TrimSpace(row.Model))
	if err != nil {
		return CreateInput{}, err
	}

	phase := enums.PhaseManufacturing
	if strings.TrimSpace(row.Phase) != "" {
		parsed, err := enums.ParseAircraftPhase(strings.TrimSpace(row.Phase))
		if err != nil {
			return CreateInput{}, err
		}
		phase = parsed
	}

	return CreateInput{
		TailNumber:   row.TailNumber,
		Model:        model,
		CustomerName: row.CustomerName,
		Phase:        phase,
		Progress:     row.Progress,
		EstDelivery:  row.EstDelivery,
		SerialNumber: row.SerialNumber,
		Actor:        actor,
	}, nil
}

// recomputeStages realigns the timeline with the aircraft's current phase.
func (s *service) recomputeStages(ctx context.Context, repo Repository, aircraft *models.Aircraft) error {
	stages, err := repo.ListLifecycleStages(ctx, aircraft.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range stages {
		stage := &stages[i]
		status := StageStatusFor(stage.Stage, aircraft.Phase)
		if stage.Status == status {
			continue
		}
		stage.Status = status
		switch status {
		case enums.MilestoneCompleted:
			if stage.CompletedAt == nil {
				stage.CompletedAt = &now
			}
			if stage.StartedAt == nil {
				stage.StartedAt = &now
			}
		case enums.MilestoneInProgress:
			if stage.StartedAt == nil {
				stage.StartedAt = &now
			}
			stage.CompletedAt = nil
		case enums.MilestoneUpcoming:
			stage.StartedAt = nil
			stage.CompletedAt = nil
		}
		if err := repo.UpdateLifecycleStage(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}

func buildLifecycleStages(aircraftID uuid.UUID, current enums.AircraftPhase) []models.LifecycleStage {
	now := time.Now().UTC()
	phases := enums.AllPhases()
	stages := make([]models.LifecycleStage, 0, len(phases))
	for i, phase := range phases {
		stage := models.LifecycleStage{
			ID:         uuid.New(),
			AircraftID: aircraftID,
			Stage:      phase,
			StageOrder: i + 1,
			Status:     StageStatusFor(phase, current),
		}
		switch stage.Status {
		case enums.MilestoneCompleted:
			stage.StartedAt = &now
			stage.CompletedAt = &now
		case enums.MilestoneInProgress:
			stage.StartedAt = &now
		}
		stages = append(stages, stage)
	}
	return stages
}

func buildMilestones(aircraftID uuid.UUID, current enums.AircraftPhase) []models.CertificationMilestone {
	templates := MilestoneTemplates()
	milestones := make([]models.CertificationMilestone, 0, len(templates))
	for _, tmpl := range templates {
		desc := tmpl.Description
		status := enums.MilestoneUpcoming
		if current == enums.PhaseDelivered {
			status = enums.MilestoneCompleted
		}
		milestones = append(milestones, models.CertificationMilestone{
			ID:          uuid.New(),
			AircraftID:  aircraftID,
			Name:        tmpl.Name,
			Description: &desc,
			Sequence:    tmpl.Sequence,
			Status:      status,
		})
	}
	return milestones
}

func (s *service) emit(ctx context.Context, eventType enums.DomainEventType, actor Actor, detail any) {
	meta := events.ActorRef{
		ActorEmail: actor.Email,
		ActorRole:  string(actor.Role),
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		meta.ActorID = &id
	}

	event, err := events.New(eventType, s.eventSource, detail, meta)
	if err != nil {
		s.logg.Error(ctx, "building domain event failed", err)
		return
	}
	s.coordinator.PublishSafely(ctx, event)
}

func actorID(actor Actor) *uuid.UUID {
	if actor.ID == uuid.Nil {
		return nil
	}
	id := actor.ID
	return &id
}

func actorEmail(actor Actor) *string {
	if actor.Email == "" {
		return nil
	}
	email := actor.Email
	return &email
}
