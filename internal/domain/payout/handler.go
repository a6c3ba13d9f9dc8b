package payout

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wishpool/wishpool-api/internal/middleware"
	"github.com/wishpool/wishpool-api/internal/pkg/response"
	"github.com/wishpool/wishpool-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type addMethodRequest struct {
	AccountNumber string `json:"account_number" validate:"required,nuban"`
	BankCode      string `json:"bank_code" validate:"required,bankcode"`
	BankName      string `json:"bank_name" validate:"max=120"`
	MakePrimary   bool   `json:"make_primary"`
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req addMethodRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	method, err := h.svc.AddMethod(r.Context(), userID, req.AccountNumber, req.BankCode, req.BankName, req.MakePrimary)
	if err != nil {
		if errors.Is(err, ErrVerificationFailed) {
			response.ProviderFailure(w, "account could not be verified")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, method)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	methods, err := h.svc.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, methods)
}

func (h *Handler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	methodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid method id")
		return
	}

	if err := h.svc.SetPrimary(r.Context(), userID, methodID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "payout method not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	methodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid method id")
		return
	}

	if err := h.svc.Delete(r.Context(), userID, methodID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "payout method not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

func (h *Handler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.svc.ListBanks(r.Context())
	if err != nil {
		response.ProviderFailure(w, "failed to fetch bank list")
		return
	}

	response.OK(w, banks)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/banks", h.ListBanks)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Add)
		r.Get("/", h.List)
		r.Patch("/{id}/primary", h.SetPrimary)
		r.Delete("/{id}", h.Delete)
	})
	return r
}
