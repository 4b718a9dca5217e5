package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/finance"
)

type ctxKey string

const ctxKeyPostTransaction ctxKey = "validatedPostTransaction"
const ctxKeyListTransactions ctxKey = "validatedListTransactions"
const ctxKeyPostAccount ctxKey = "validatedPostAccount"
const ctxKeyPostCategory ctxKey = "validatedPostCategory"

// transactionDraft carries the decoded wire fields of a transaction request.
// The amount stays in minor units; the currency comes from the referenced
// account once the handler resolves it.
type transactionDraft struct {
	MinorUnits  int64
	Description string
	Date        time.Time
	Type        finance.TransactionType
	AccountID   uuid.UUID
	CategoryID  uuid.UUID
}

// validatePostTransaction decodes and shape-checks the transaction body and
// stores the validated draft in the request context for the handler to use.
func (s *Server) validatePostTransaction() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req postTransactionRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeErr(w, http.StatusBadRequest, "JSON inválido")
				return
			}
			if strings.TrimSpace(req.Amount) == "" || strings.TrimSpace(req.Description) == "" ||
				req.Date.IsZero() || req.Type == "" || req.AccountID == uuid.Nil || req.CategoryID == uuid.Nil {
				writeErr(w, http.StatusBadRequest, "Todos os campos são obrigatórios")
				return
			}
			if !req.Type.Valid() {
				writeErr(w, http.StatusBadRequest, "Tipo de transação inválido")
				return
			}
			if req.Type == finance.TypeTransfer {
				writeErr(w, http.StatusBadRequest, "Transferências ainda não são suportadas")
				return
			}
			minor, ok := finance.ParseAmountToMinor(req.Amount)
			if !ok {
				writeErr(w, http.StatusBadRequest, "Valor inválido")
				return
			}
			if minor <= 0 {
				writeErr(w, http.StatusBadRequest, "O valor deve ser maior que zero")
				return
			}
			draft := transactionDraft{
				MinorUnits:  minor,
				Description: req.Description,
				Date:        req.Date.UTC(),
				Type:        req.Type,
				AccountID:   req.AccountID,
				CategoryID:  req.CategoryID,
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostTransaction, draft)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateListTransactions parses and validates query params for GET /transactions.
func (s *Server) validateListTransactions() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			query := listTransactionsQuery{}
			if raw := q.Get("type"); raw != "" {
				t := finance.TransactionType(strings.ToUpper(raw))
				if !t.Valid() {
					writeErr(w, http.StatusBadRequest, "Tipo de transação inválido")
					return
				}
				query.Type = t
			}
			if raw := q.Get("account_id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					writeErr(w, http.StatusBadRequest, "Parâmetro account_id inválido")
					return
				}
				query.AccountID = id
			}
			if raw := q.Get("category_id"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					writeErr(w, http.StatusBadRequest, "Parâmetro category_id inválido")
					return
				}
				query.CategoryID = id
			}
			if raw := q.Get("page"); raw != "" {
				if n, err := strconv.Atoi(raw); err == nil {
					query.Page = n
				}
			}
			if raw := q.Get("limit"); raw != "" {
				if n, err := strconv.Atoi(raw); err == nil {
					query.Limit = n
				}
			}
			ctx := context.WithValue(r.Context(), ctxKeyListTransactions, query)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostAccount parses and validates POST /accounts body and stores the
// domain account in context.
func (s *Server) validatePostAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req postAccountRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeErr(w, http.StatusBadRequest, "JSON inválido")
				return
			}
			if strings.TrimSpace(req.Name) == "" || req.Type == "" {
				writeErr(w, http.StatusBadRequest, "Todos os campos são obrigatórios")
				return
			}
			if !req.Type.Valid() {
				writeErr(w, http.StatusBadRequest, "Tipo de conta inválido")
				return
			}
			currency := strings.ToUpper(strings.TrimSpace(req.Currency))
			if currency == "" {
				currency = finance.DefaultCurrency
			}
			var minor int64
			if strings.TrimSpace(req.Balance) != "" {
				var ok bool
				neg := strings.HasPrefix(strings.TrimSpace(req.Balance), "-")
				raw := strings.TrimPrefix(strings.TrimSpace(req.Balance), "-")
				minor, ok = finance.ParseAmountToMinor(raw)
				if !ok {
					writeErr(w, http.StatusBadRequest, "Saldo inicial inválido")
					return
				}
				if neg {
					minor = -minor
				}
			}
			bal, err := finance.AmountFromMinor(currency, minor)
			if err != nil {
				writeErr(w, http.StatusBadRequest, "Moeda inválida")
				return
			}
			a := finance.Account{
				Name:        req.Name,
				Type:        req.Type,
				Currency:    currency,
				Balance:     bal,
				Description: req.Description,
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostAccount, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostCategory parses and validates POST /categories body.
func (s *Server) validatePostCategory() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req postCategoryRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeErr(w, http.StatusBadRequest, "JSON inválido")
				return
			}
			if strings.TrimSpace(req.Name) == "" || req.Type == "" {
				writeErr(w, http.StatusBadRequest, "Todos os campos são obrigatórios")
				return
			}
			if !req.Type.Valid() {
				writeErr(w, http.StatusBadRequest, "Tipo de categoria inválido")
				return
			}
			c := finance.Category{
				Name:        req.Name,
				Type:        req.Type,
				Description: req.Description,
				Color:       req.Color,
				Icon:        req.Icon,
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostCategory, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
