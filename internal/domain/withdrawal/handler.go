package withdrawal

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wishpool/wishpool-api/internal/domain/payout"
	"github.com/wishpool/wishpool-api/internal/domain/wallet"
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

type createRequest struct {
	Amount         decimal.Decimal       `json:"amount"`
	PayoutMethodID *uuid.UUID            `json:"payout_method_id,omitempty"`
	Account        *payout.InlineAccount `json:"account,omitempty"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Account != nil {
		if fieldErrors := validator.Validate(req.Account); fieldErrors != nil {
			response.ValidationError(w, fieldErrors)
			return
		}
	}

	created, err := h.svc.Create(r.Context(), userID, req.Amount, payout.Selector{
		MethodID: req.PayoutMethodID,
		Inline:   req.Account,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, created)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid withdrawal id")
		return
	}

	if err := h.svc.Cancel(r.Context(), userID, id); err != nil {
		h.writeError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid withdrawal id")
		return
	}

	req, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, req)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	requests, total, err := h.svc.List(r.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	pages := (total + limit - 1) / limit
	response.WithMeta(w, requests, response.Meta{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	})
}

// --- admin handlers: the manual reconciliation tools for stuck transfers ---

func (h *Handler) AdminProcess(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid withdrawal id")
		return
	}

	req, err := h.svc.Process(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, req)
}

func (h *Handler) AdminComplete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid withdrawal id")
		return
	}

	if err := h.svc.Complete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	response.NoContent(w)
}

type failRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) AdminFail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid withdrawal id")
		return
	}

	var req failRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	if err := h.svc.Fail(r.Context(), id, req.Reason); err != nil {
		h.writeError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotOwner), errors.Is(err, payout.ErrNotFound):
		response.NotFound(w, "withdrawal not found")
	case errors.Is(err, ErrInvalidState):
		response.InvalidState(w, "operation not allowed in current status")
	case errors.Is(err, ErrBelowMinimum):
		response.ValidationFailed(w, "amount is below the withdrawal minimum")
	case errors.Is(err, ErrInvalidAmount):
		response.BadRequest(w, "amount must be greater than zero")
	case errors.Is(err, wallet.ErrInsufficientBalance):
		response.InsufficientBalance(w, "insufficient wallet balance")
	case errors.Is(err, payout.ErrNotVerified), errors.Is(err, payout.ErrNoPrimaryMethod):
		response.ValidationFailed(w, "no verified payout method available")
	case errors.Is(err, payout.ErrVerificationFailed), errors.Is(err, ErrProviderFailure):
		response.ProviderFailure(w, "payment provider call failed")
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)
	return r
}

func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Post("/{id}/process", h.AdminProcess)
	r.Post("/{id}/complete", h.AdminComplete)
	r.Post("/{id}/fail", h.AdminFail)
	return r
}
