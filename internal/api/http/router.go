package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every route under its security-config name
func NewRouter(h *Handler, auth *AuthMiddleware) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestLogger)
	router.Use(auth.Handler)

	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet).Name("Healthz")

	v1 := router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost).Name("CreateAccount")
	v1.HandleFunc("/accounts", h.ListAccounts).Methods(http.MethodGet).Name("ListAccounts")
	v1.HandleFunc("/accounts/{id}", h.GetAccount).Methods(http.MethodGet).Name("GetAccount")
	v1.HandleFunc("/accounts/{id}/debit", h.DebitAccount).Methods(http.MethodPost).Name("DebitAccount")
	v1.HandleFunc("/accounts/{id}/credit", h.CreditAccount).Methods(http.MethodPost).Name("CreditAccount")
	v1.HandleFunc("/transfers", h.CreateTransfer).Methods(http.MethodPost).Name("CreateTransfer")
	v1.HandleFunc("/clients", h.CreateClient).Methods(http.MethodPost).Name("CreateClient")

	v1.HandleFunc("/line-items", h.CreateLineItem).Methods(http.MethodPost).Name("CreateLineItem")
	v1.HandleFunc("/line-items/{id}", h.UpdateLineItem).Methods(http.MethodPut).Name("UpdateLineItem")

	quotes := h.svc.Quotes
	v1.HandleFunc("/quotes", h.CreateQuote).Methods(http.MethodPost).Name("CreateQuote")
	v1.HandleFunc("/quotes/{id}", h.GetQuote).Methods(http.MethodGet).Name("GetQuote")
	v1.HandleFunc("/quotes/{id}/group-acceptance", h.QuoteAction(quotes.RecordGroupAcceptance)).Methods(http.MethodPost).Name("QuoteGroupAcceptance")
	v1.HandleFunc("/quotes/{id}/order-giver-acceptance", h.QuoteAction(quotes.RecordOrderGiverAcceptance)).Methods(http.MethodPost).Name("QuoteOrderGiverAcceptance")
	v1.HandleFunc("/quotes/{id}/group-rejection", h.QuoteAction(quotes.RecordGroupRejection)).Methods(http.MethodPost).Name("QuoteGroupRejection")
	v1.HandleFunc("/quotes/{id}/order-giver-rejection", h.QuoteAction(quotes.RecordOrderGiverRejection)).Methods(http.MethodPost).Name("QuoteOrderGiverRejection")
	v1.HandleFunc("/quotes/{id}/cancel", h.QuoteAction(quotes.CancelQuote)).Methods(http.MethodPost).Name("CancelQuote")
	v1.HandleFunc("/quotes/{id}/invoice", h.InvoiceQuote).Methods(http.MethodPost).Name("InvoiceQuote")

	v1.HandleFunc("/invoices/{id}", h.GetInvoice).Methods(http.MethodGet).Name("GetInvoice")
	v1.HandleFunc("/invoices/{id}", h.DeleteInvoice).Methods(http.MethodDelete).Name("DeleteInvoice")
	v1.HandleFunc("/invoices/{id}/paid", h.MarkInvoicePaid).Methods(http.MethodPost).Name("MarkInvoicePaid")
	v1.HandleFunc("/credit-notes", h.CreateCreditNote).Methods(http.MethodPost).Name("CreateCreditNote")

	v1.HandleFunc("/sepa-transfers", h.CreateSepaTransfer).Methods(http.MethodPost).Name("CreateSepaTransfer")
	v1.HandleFunc("/sepa-transfers/{id}", h.GetSepaTransfer).Methods(http.MethodGet).Name("GetSepaTransfer")
	v1.HandleFunc("/sepa-transfers/{id}", h.UpdateSepaTransferState).Methods(http.MethodPatch).Name("UpdateSepaTransferState")

	return router
}
