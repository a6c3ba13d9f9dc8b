package contribution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wishpool/wishpool-api/internal/domain/wishlist"
	"github.com/wishpool/wishpool-api/internal/pkg/paystack"
	"github.com/wishpool/wishpool-api/internal/pkg/response"
	"github.com/wishpool/wishpool-api/internal/pkg/validator"
)

// TransferSettler finalizes wallet withdrawals when transfer webhooks land
type TransferSettler interface {
	CompleteByReference(ctx context.Context, reference string) error
	FailByReference(ctx context.Context, reference, reason string) error
}

type Handler struct {
	svc           *Service
	transfers     TransferSettler
	webhookSecret string
}

func NewHandler(svc *Service, transfers TransferSettler, webhookSecret string) *Handler {
	return &Handler{svc: svc, transfers: transfers, webhookSecret: webhookSecret}
}

type initiateRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Name        string          `json:"name" validate:"required,min=1,max=100"`
	Email       string          `json:"email" validate:"required,email"`
	Message     string          `json:"message" validate:"max=500"`
	IsAnonymous bool            `json:"is_anonymous"`
}

// Initiate opens a charge toward a single item. Public: contributors do
// not hold accounts.
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		response.BadRequest(w, "invalid item id")
		return
	}

	var req initiateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	result, err := h.svc.Initiate(r.Context(), itemID, req.Amount, ContributorInput{
		Name:        req.Name,
		Email:       req.Email,
		Message:     req.Message,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, result)
}

type contributeAllRequest struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	Strategy    string          `json:"strategy" validate:"strategy"`
	Name        string          `json:"name" validate:"required,min=1,max=100"`
	Email       string          `json:"email" validate:"required,email"`
	Message     string          `json:"message" validate:"max=500"`
	IsAnonymous bool            `json:"is_anonymous"`
}

func (h *Handler) ContributeToAll(w http.ResponseWriter, r *http.Request) {
	wishlistID, err := uuid.Parse(chi.URLParam(r, "wishlistID"))
	if err != nil {
		response.BadRequest(w, "invalid wishlist id")
		return
	}

	var req contributeAllRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	result, err := h.svc.ContributeToAll(r.Context(), wishlistID, req.TotalAmount, Strategy(req.Strategy), ContributorInput{
		Name:        req.Name,
		Email:       req.Email,
		Message:     req.Message,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, result)
}

// Webhook receives Paystack events. The raw body is verified against the
// signature header before any decoding; unverifiable requests get a bare
// 401 with no envelope, there is no client on the other end to read one.
// Always 200 on handled-or-ignored events so the provider stops retrying.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(paystack.SignatureHeader)
	if !paystack.VerifySignature(body, signature, h.webhookSecret) {
		log.Warn().Msg("webhook signature verification failed")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	event, err := paystack.ParseEvent(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case paystack.EventChargeSuccess:
		data, err := event.ParseChargeData()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.svc.Settle(r.Context(), data.Reference, fmt.Sprintf("%d", data.ID)); err != nil {
			log.Error().Err(err).Str("reference", data.Reference).Msg("webhook settlement failed")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	case paystack.EventTransferSuccess:
		data, err := event.ParseTransferData()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.transfers.CompleteByReference(r.Context(), data.Reference); err != nil {
			log.Error().Err(err).Str("reference", data.Reference).Msg("webhook transfer completion failed")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	case paystack.EventTransferFailed:
		data, err := event.ParseTransferData()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reason := data.Reason
		if reason == "" {
			reason = "transfer failed at provider"
		}
		if err := h.transfers.FailByReference(r.Context(), data.Reference, reason); err != nil {
			log.Error().Err(err).Str("reference", data.Reference).Msg("webhook transfer failure handling failed")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	default:
		log.Debug().Str("event", event.Type).Msg("webhook event ignored")
	}

	w.WriteHeader(http.StatusOK)
}

// Verify is the fallback for missed webhooks: the frontend calls it after
// the checkout redirect and the charge is verified directly against the
// provider.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		response.BadRequest(w, "missing reference")
		return
	}

	if err := h.svc.VerifyAndSettle(r.Context(), reference); err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, map[string]string{"reference": reference, "status": "settled"})
}

func (h *Handler) ListByWishlist(w http.ResponseWriter, r *http.Request) {
	wishlistID, err := uuid.Parse(chi.URLParam(r, "wishlistID"))
	if err != nil {
		response.BadRequest(w, "invalid wishlist id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	rows, err := h.svc.ListByWishlist(r.Context(), wishlistID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	// anonymity is applied at the edge, the rows keep the real name
	type publicContribution struct {
		Contribution
		ContributorName string `json:"contributor_name"`
	}
	out := make([]publicContribution, len(rows))
	for i, c := range rows {
		out[i] = publicContribution{Contribution: c, ContributorName: c.DisplayName()}
		if c.IsAnonymous {
			out[i].ContributorEmail = ""
		}
	}

	response.OK(w, out)
}

func (h *Handler) AdminRefund(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid contribution id")
		return
	}

	result, err := h.svc.Refund(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, result)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, wishlist.ErrNotFound), errors.Is(err, wishlist.ErrItemNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrUnknownStrategy):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNoUnfundedItems), errors.Is(err, ErrInvalidState):
		response.InvalidState(w, err.Error())
	case errors.Is(err, ErrPaymentNotPaid):
		response.ValidationFailed(w, err.Error())
	case errors.Is(err, ErrProviderFailure):
		response.ProviderFailure(w, err.Error())
	default:
		response.InternalError(w)
	}
}

// Routes mounts the public contribution endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/items/{itemID}", h.Initiate)
	r.Post("/wishlists/{wishlistID}/all", h.ContributeToAll)
	r.Get("/wishlists/{wishlistID}", h.ListByWishlist)
	r.Get("/verify/{reference}", h.Verify)

	return r
}

// AdminRoutes mounts the manual refund tool
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Post("/{id}/refund", h.AdminRefund)

	return r
}
