package aircraft

import (
	"net/http"

	"github.com/aerotrack-io/aerotrack-backend/api/responses"
	"github.com/aerotrack-io/aerotrack-backend/internal/audit"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
)

// AuditTrail lists the recorded actions for one aircraft, newest first.
// Internal-only; routing enforces the role.
func AuditTrail(recorder *audit.Recorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseAircraftID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := recorder.ListForEntity(r.Context(), "aircraft", id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
