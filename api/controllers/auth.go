package controllers

import (
	"net/http"

	"github.com/aerotrack-io/aerotrack-backend/api/responses"
	"github.com/aerotrack-io/aerotrack-backend/api/validators"
	internalauth "github.com/aerotrack-io/aerotrack-backend/internal/auth"
	pkgerrors "github.com/aerotrack-io/aerotrack-backend/pkg/errors"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
)

// Login authenticates credentials and issues an access token.
func Login(svc internalauth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req internalauth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
