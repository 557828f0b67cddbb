package controllers

import (
	"net/http"
	"strings"

	"github.com/logiccrafts/connect-backend/api/middleware"
	"github.com/logiccrafts/connect-backend/api/responses"
	"github.com/logiccrafts/connect-backend/api/validators"
	pkgerrors "github.com/logiccrafts/connect-backend/pkg/errors"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/pagination"
)

// requireActor resolves the caller placed on the context by middleware.Auth and
// writes a 401 when it is missing.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (middleware.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return middleware.Actor{}, false
	}
	return actor, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
