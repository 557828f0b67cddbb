package controllers

import (
	"net/http"
	"strings"

	"github.com/logiccrafts/connect-backend/api/responses"
	"github.com/logiccrafts/connect-backend/api/validators"
	"github.com/logiccrafts/connect-backend/internal/crafts"
	"github.com/logiccrafts/connect-backend/pkg/enums"
	"github.com/logiccrafts/connect-backend/pkg/logger"
)

// CraftsList returns the public catalog: approved and public crafts only.
func CraftsList(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "crafts")
			return
		}
		ctx := r.Context()
		query := r.URL.Query()

		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		pageNumber, err := validators.ParseQueryInt(r, "page", 0, 0, 10000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		minPrice, err := validators.ParseQueryDecimal(r, "min_price")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		maxPrice, err := validators.ParseQueryDecimal(r, "max_price")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := crafts.ListInput{
			Filters: crafts.ListFilters{
				Category: strings.TrimSpace(query.Get("category")),
				Query:    validators.SanitizeString(query.Get("q"), 120),
				MinPrice: minPrice,
				MaxPrice: maxPrice,
				Sort:     enums.CraftSort(strings.TrimSpace(query.Get("sort"))),
			},
			Pagination: page,
			Page:       pageNumber,
		}

		result, err := svc.List(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CraftGet returns one public craft and counts the view.
func CraftGet(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "crafts")
			return
		}
		craftID, err := validators.ParseURLUUID(r, "craftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		craft, err := svc.Get(r.Context(), craftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, craft)
	}
}

func CraftsMine(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "crafts")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		rows, err := svc.ListMine(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, rows, len(rows))
	}
}

func CraftCreate(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "crafts")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var body crafts.CreateCraftInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		craft, err := svc.Create(r.Context(), actor.UserID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, craft)
	}
}

func CraftUpdate(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "crafts")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		craftID, err := validators.ParseURLUUID(r, "craftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body crafts.UpdateCraftInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		craft, err := svc.Update(r.Context(), actor.UserID, craftID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, craft)
	}
}

// CraftDelete removes the craft, or hides it when orders reference it.
func CraftDelete(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "crafts")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		craftID, err := validators.ParseURLUUID(r, "craftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), actor.UserID, craftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CraftModerate(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "crafts")
			return
		}
		craftID, err := validators.ParseURLUUID(r, "craftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body crafts.ModerateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		craft, err := svc.Moderate(r.Context(), craftID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, craft)
	}
}
