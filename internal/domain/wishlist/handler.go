package wishlist

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateWishlistInput
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	created, err := h.svc.CreateWishlist(r.Context(), userID, req)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, created)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	lists, err := h.svc.ListWishlists(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, lists)
}

// Get is public so contributors can view a wishlist before paying
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid wishlist id")
		return
	}

	list, items, err := h.svc.GetWishlist(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"wishlist": list,
		"items":    items,
	})
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	wishlistID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid wishlist id")
		return
	}

	var req AddItemInput
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	item, err := h.svc.AddItem(r.Context(), userID, wishlistID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, item)
}

type withdrawItemRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

func (h *Handler) WithdrawItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		response.BadRequest(w, "invalid item id")
		return
	}

	var req withdrawItemRequest
	if r.ContentLength > 0 {
		if err := response.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, "invalid JSON body")
			return
		}
	}

	iw, err := h.svc.WithdrawFromItem(r.Context(), userID, itemID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, iw)
}

func (h *Handler) WithdrawAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	wishlistID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid wishlist id")
		return
	}

	result, err := h.svc.WithdrawAll(r.Context(), userID, wishlistID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, result)
}

func (h *Handler) ListItemWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	ws, err := h.svc.ListItemWithdrawals(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, ws)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrItemNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrNotWithdrawable), errors.Is(err, ErrNothingToWithdraw):
		response.InvalidState(w, err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		response.InsufficientBalance(w, err.Error())
	case errors.Is(err, ErrInvalidAmount):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w)
	}
}

// Routes mounts wishlist endpoints. Reads of a single wishlist are public;
// everything else requires the owner's token.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Post("/{id}/items", h.AddItem)
		r.Post("/{id}/withdraw-all", h.WithdrawAll)
		r.Post("/items/{itemID}/withdraw", h.WithdrawItem)
		r.Get("/item-withdrawals", h.ListItemWithdrawals)
	})

	return r
}
