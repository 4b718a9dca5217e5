// Transaction handlers: lifecycle operations that move account balances.
package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/finance"
	"github.com/financehero/ledger/internal/service/transaction"
)

const msgTransactionNotFound = "Transação não encontrada"

func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	d, ok := r.Context().Value(ctxKeyPostTransaction).(transactionDraft)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}
	uid := userID(r)
	acc, err := s.accSvc.Get(r.Context(), uid, d.AccountID)
	if err != nil {
		respondError(w, err, "Conta não encontrada ou não pertence ao usuário")
		return
	}
	amt, err := finance.AmountFromMinor(acc.Currency, d.MinorUnits)
	if err != nil {
		respondError(w, err, msgTransactionNotFound)
		return
	}
	tx, err := s.txSvc.Create(r.Context(), finance.Transaction{
		UserID:      uid,
		Amount:      amt,
		Description: d.Description,
		Date:        d.Date,
		Type:        d.Type,
		AccountID:   d.AccountID,
		CategoryID:  d.CategoryID,
	})
	if err != nil {
		respondError(w, err, msgTransactionNotFound)
		return
	}
	toJSON(w, http.StatusCreated, s.decorate(r, tx))
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q, ok := r.Context().Value(ctxKeyListTransactions).(listTransactionsQuery)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}
	f := transaction.Filter{
		Type:       q.Type,
		AccountID:  q.AccountID,
		CategoryID: q.CategoryID,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 200 {
		f.Limit = 50
	}
	txs, total, err := s.txSvc.List(r.Context(), userID(r), f)
	if err != nil {
		respondError(w, err, msgTransactionNotFound)
		return
	}
	items := make([]transactionResponse, 0, len(txs))
	accs := map[uuid.UUID]*accountRef{}
	cats := map[uuid.UUID]*categoryRef{}
	for _, t := range txs {
		resp := toTransactionResponse(t)
		if ref, seen := accs[t.AccountID]; seen {
			resp.Account = ref
		} else if a, err := s.accSvc.Get(r.Context(), t.UserID, t.AccountID); err == nil {
			ref := &accountRef{ID: a.ID, Name: a.Name, Type: a.Type}
			accs[t.AccountID] = ref
			resp.Account = ref
		}
		if ref, seen := cats[t.CategoryID]; seen {
			resp.Category = ref
		} else if c, err := s.catSvc.Get(r.Context(), t.UserID, t.CategoryID); err == nil {
			ref := &categoryRef{ID: c.ID, Name: c.Name, Type: c.Type, Color: c.Color, Icon: c.Icon}
			cats[t.CategoryID] = ref
			resp.Category = ref
		}
		items = append(items, resp)
	}
	toJSON(w, http.StatusOK, listTransactionsResponse{Items: items, Total: total, Page: f.Page, Limit: f.Limit})
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Identificador de transação inválido")
		return
	}
	tx, err := s.txSvc.Get(r.Context(), userID(r), id)
	if err != nil {
		respondError(w, err, msgTransactionNotFound)
		return
	}
	toJSON(w, http.StatusOK, s.decorate(r, tx))
}

func (s *Server) putTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Identificador de transação inválido")
		return
	}
	d, ok := r.Context().Value(ctxKeyPostTransaction).(transactionDraft)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}
	uid := userID(r)
	acc, err := s.accSvc.Get(r.Context(), uid, d.AccountID)
	if err != nil {
		respondError(w, err, "Conta não encontrada ou não pertence ao usuário")
		return
	}
	amt, err := finance.AmountFromMinor(acc.Currency, d.MinorUnits)
	if err != nil {
		respondError(w, err, msgTransactionNotFound)
		return
	}
	tx, err := s.txSvc.Update(r.Context(), finance.Transaction{
		ID:          id,
		UserID:      uid,
		Amount:      amt,
		Description: d.Description,
		Date:        d.Date,
		Type:        d.Type,
		AccountID:   d.AccountID,
		CategoryID:  d.CategoryID,
	})
	if err != nil {
		respondError(w, err, msgTransactionNotFound)
		return
	}
	toJSON(w, http.StatusOK, s.decorate(r, tx))
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Identificador de transação inválido")
		return
	}
	if err := s.txSvc.Delete(r.Context(), userID(r), id); err != nil {
		respondError(w, err, msgTransactionNotFound)
		return
	}
	toJSON(w, http.StatusOK, messageResponse{Message: "Transação deletada com sucesso"})
}

// decorate attaches the joined account and category references to a single
// transaction response. Lookups that fail leave the reference empty.
func (s *Server) decorate(r *http.Request, t finance.Transaction) transactionResponse {
	resp := toTransactionResponse(t)
	if a, err := s.accSvc.Get(r.Context(), t.UserID, t.AccountID); err == nil {
		resp.Account = &accountRef{ID: a.ID, Name: a.Name, Type: a.Type}
	}
	if c, err := s.catSvc.Get(r.Context(), t.UserID, t.CategoryID); err == nil {
		resp.Category = &categoryRef{ID: c.ID, Name: c.Name, Type: c.Type, Color: c.Color, Icon: c.Icon}
	}
	return resp
}
