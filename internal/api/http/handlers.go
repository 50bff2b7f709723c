package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/service"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services groups the engine entry points the API exposes
type Services struct {
	Accounts    service.AccountService
	Transfers   service.MoneyTransferService
	Clients     service.ClientDirectory
	LineItems   service.LineItemService
	Quotes      service.QuoteService
	Invoices    service.InvoiceService
	CreditNotes service.CreditNoteService
	Sepa        service.SepaTransferService
	Perms       service.PermissionService
}

type Handler struct {
	svc      Services
	db       Pinger
	validate *validator.Validate
}

func NewHandler(svc Services, db Pinger) *Handler {
	return &Handler{svc: svc, db: db, validate: newValidator()}
}

// decode reads a JSON body into dst and runs its validation tags
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeValidationError(w, fmt.Errorf("malformed request body: %w", err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeValidationError(w, fmt.Errorf("invalid id %q", mux.Vars(r)["id"]))
		return 0, false
	}
	return id, true
}

func actingUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing user identity")
	}
	return userID, ok
}

// member checks that the acting user belongs to accountID
func (h *Handler) member(w http.ResponseWriter, r *http.Request, userID, accountID int64) bool {
	if err := h.svc.Perms.RequireMember(r.Context(), userID, accountID); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Accounts

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req createAccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	account, err := h.svc.Accounts.CreateAccount(r.Context(), userID, domain.AccountKind(req.Kind), req.Name, req.Email, req.OpeningBalance)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	account, err := h.svc.Accounts.GetAccount(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ListAccounts is restricted to system administrators
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.Perms.RequireSystemAdmin(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	accounts, err := h.svc.Accounts.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) DebitAccount(w http.ResponseWriter, r *http.Request) {
	h.adjustAccount(w, r, h.svc.Accounts.Debit)
}

func (h *Handler) CreditAccount(w http.ResponseWriter, r *http.Request) {
	h.adjustAccount(w, r, h.svc.Accounts.Credit)
}

type adjustFunc func(ctx context.Context, userID, accountID int64, amount decimal.Decimal) (*domain.Account, error)

func (h *Handler) adjustAccount(w http.ResponseWriter, r *http.Request, apply adjustFunc) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !h.decode(w, r, &req) {
		return
	}
	account, err := apply(r.Context(), userID, id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.svc.Transfers.Transfer(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if !h.decode(w, r, &req) {
		return
	}
	client := &domain.Client{
		Name:        req.Name,
		Email:       req.Email,
		CompanyName: req.CompanyName,
		VATNumber:   req.VATNumber,
		Address:     req.Address,
	}
	if err := h.svc.Clients.CreateClient(r.Context(), client); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

// Documents

func (h *Handler) CreateLineItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req lineItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.svc.LineItems.CreateLineItem(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req lineItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.svc.LineItems.UpdateLineItem(r.Context(), userID, id, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req createQuoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Quotes.CreateQuote(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	quote, err := h.svc.Quotes.GetQuote(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.member(w, r, userID, quote.AccountID) {
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

type quoteAction func(ctx context.Context, userID, quoteID int64) (*domain.Quote, error)

// QuoteAction serves the acceptance, rejection and cancel routes
func (h *Handler) QuoteAction(action quoteAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := actingUser(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		quote, err := action(r.Context(), userID, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quote)
	}
}

func (h *Handler) InvoiceQuote(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req invoiceQuoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Invoices.CreateFromQuote(r.Context(), userID, id, req.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.Invoices.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.member(w, r, userID, inv.AccountID) {
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) MarkInvoicePaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.Invoices.MarkInvoicePaid(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Invoices.DeleteInvoice(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateCreditNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req creditNoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.CreditNotes.CreateCreditNote(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// SEPA

func (h *Handler) CreateSepaTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	var req sepaTransferRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Sepa.CreateSepaTransfer(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) GetSepaTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	transfer, err := h.svc.Sepa.GetSepaTransfer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.member(w, r, userID, transfer.AccountID) {
		return
	}
	writeJSON(w, http.StatusOK, transfer)
}

func (h *Handler) UpdateSepaTransferState(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req sepaStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	transfer, err := h.svc.Sepa.UpdateSepaTransferStatus(r.Context(), userID, id, domain.SepaStatus(req.Status), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transfer)
}
