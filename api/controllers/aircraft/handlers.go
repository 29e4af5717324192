package aircraft

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/api/middleware"
	"github.com/aerotrack-io/aerotrack-backend/api/responses"
	"github.com/aerotrack-io/aerotrack-backend/api/validators"
	internalaircraft "github.com/aerotrack-io/aerotrack-backend/internal/aircraft"
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
	pkgerrors "github.com/aerotrack-io/aerotrack-backend/pkg/errors"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
)

type createAircraftRequest struct {
	TailNumber   string     `json:"tailNumber" validate:"required"`
	Model        string     `json:"model" validate:"required"`
	CustomerName string     `json:"customerName" validate:"required"`
	Phase        string     `json:"phase,omitempty"`
	Progress     *int       `json:"progress,omitempty" validate:"omitempty,gte=0,lte=100"`
	EstDelivery  *time.Time `json:"estDelivery,omitempty"`
	SerialNumber *string    `json:"serialNumber,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

type updateStatusRequest struct {
	Phase    string `json:"phase" validate:"required"`
	Progress *int   `json:"progress,omitempty" validate:"omitempty,gte=0,lte=100"`
}

type updateMilestoneRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

type importRequest struct {
	Rows []internalaircraft.ImportRow `json:"rows" validate:"required,min=1,max=500"`
}

// Summary returns the dashboard aggregates for the caller's visible fleet.
func Summary(svc internalaircraft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.DashboardSummary(r.Context(), scopeFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// List returns one page of aircraft, filtered and scoped to the caller.
func List(svc internalaircraft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := buildListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), scopeFromRequest(r), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Detail returns one aircraft with its sustainability figures.
func Detail(svc internalaircraft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseAircraftID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		found, err := svc.Get(r.Context(), scopeFromRequest(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// Timeline returns the aircraft's lifecycle stages in pipeline order.
func Timeline(svc internalaircraft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseAircraftID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stages, err := svc.Timeline(r.Context(), scopeFromRequest(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stages)
	}
}

// Certifications returns the aircraft's certification milestones in sequence.
func Certifications(svc internalaircraft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseAircraftID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		milestones, err := svc.Certifications(r.Context(), scopeFromRequest(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, milestones)
	}
}

// Create registers a new aircraft and seeds its timeline, milestones, and
// sustainability defaults.
func Create(svc internalaircraft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAircraftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalaircraft.CreateInput{
			TailNumber:   req.TailNumber,
			Model:        enums.AircraftModel(req.Model),
			CustomerName: req.CustomerName,
			Phase:        enums.AircraftPhase(req.Phase),
			Progress:     req.Progress,
			EstDelivery:  req.EstDelivery,
			SerialNumber: req.SerialNumber,
			Notes:        req.Notes,
			Actor:        actorFromRequest(r),
		}
		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateStatus applies a phase transition or progress change.
func UpdateStatus(svc internalaircraft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseAircraftID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		phase, err := enums.ParseAircraftPhase(req.Phase)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phase"))
			return
		}

		result, err := svc.UpdateStatus(r.Context(), internalaircraft.UpdateStatusInput{
			AircraftID:  id,
			TargetPhase: phase,
			Progress:    req.Progress,
			Actor:       actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateMilestone toggles a certification milestone and returns the
// recomputed certification progress.
func UpdateMilestone(svc internalaircraft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseAircraftID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		milestoneID, err := uuid.Parse(chi.URLParam(r, "milestoneId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid milestone id"))
			return
		}

		var req updateMilestoneRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateMilestone(r.Context(), internalaircraft.UpdateMilestoneInput{
			AircraftID:  id,
			MilestoneID: milestoneID,
			Completed:   *req.Completed,
			Actor:       actorFromRequest(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Import bulk-registers aircraft, reporting per-row failures without
// aborting the batch.
func Import(svc internalaircraft.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Import(r.Context(), actorFromRequest(r), req.Rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseAircraftID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid aircraft id")
	}
	return id, nil
}

func buildListFilter(r *http.Request) (internalaircraft.ListFilter, error) {
	filter := internalaircraft.ListFilter{
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
		SortBy:  strings.TrimSpace(r.URL.Query().Get("sortBy")),
		SortDir: strings.TrimSpace(r.URL.Query().Get("sortDir")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("phase")); raw != "" {
		phase, err := enums.ParseAircraftPhase(raw)
		if err != nil {
			return internalaircraft.ListFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phase filter")
		}
		filter.Phase = &phase
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("model")); raw != "" {
		model, err := enums.ParseAircraftModel(raw)
		if err != nil {
			return internalaircraft.ListFilter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid model filter")
		}
		filter.Model = &model
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("customer")); raw != "" {
		filter.CustomerName = &raw
	}
	return filter, nil
}

func scopeFromRequest(r *http.Request) internalaircraft.Scope {
	ctx := r.Context()
	role := enums.UserRole(middleware.RoleFromContext(ctx))
	if !role.IsValid() {
		role = enums.RoleCustomer
	}
	return internalaircraft.Scope{
		Role:         role,
		CustomerName: middleware.CustomerNameFromContext(ctx),
	}
}

func actorFromRequest(r *http.Request) internalaircraft.Actor {
	ctx := r.Context()
	actor := internalaircraft.Actor{
		Email: middleware.UserEmailFromContext(ctx),
		Role:  enums.UserRole(middleware.RoleFromContext(ctx)),
	}
	if id, err := uuid.Parse(middleware.UserIDFromContext(ctx)); err == nil {
		actor.ID = id
	}
	return actor
}
