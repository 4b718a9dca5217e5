// Account handlers: CRUD with the referential delete guard.
package httpapi

import (
	"encoding/json"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/finance"
)

const msgAccountNotFound = "Conta não encontrada ou não pertence ao usuário"

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := r.Context().Value(ctxKeyPostAccount).(finance.Account)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}
	a.UserID = userID(r)
	acc, err := s.accSvc.Create(r.Context(), a)
	if err != nil {
		respondError(w, err, msgAccountNotFound)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(acc))
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	accs, err := s.accSvc.List(r.Context(), userID(r), includeInactive)
	if err != nil {
		respondError(w, err, msgAccountNotFound)
		return
	}
	out := make([]accountResponse, 0, len(accs))
	for _, a := range accs {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Identificador de conta inválido")
		return
	}
	acc, err := s.accSvc.Get(r.Context(), userID(r), id)
	if err != nil {
		respondError(w, err, msgAccountNotFound)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

// patchAccount handles PATCH /accounts/{id}.
// Allows updating name, type, description and active. Balance and currency
// never change through this endpoint.
func (s *Server) patchAccount(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Identificador de conta inválido")
		return
	}
	var payload struct {
		Name        *string              `json:"name"`
		Type        *finance.AccountType `json:"type"`
		Description *string              `json:"description"`
		Active      *bool                `json:"active"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	uid := userID(r)
	acc, err := s.accSvc.Get(r.Context(), uid, id)
	if err != nil {
		respondError(w, err, msgAccountNotFound)
		return
	}
	if payload.Name != nil {
		acc.Name = *payload.Name
	}
	if payload.Type != nil {
		acc.Type = *payload.Type
	}
	if payload.Description != nil {
		acc.Description = *payload.Description
	}
	if payload.Active != nil {
		acc.Active = *payload.Active
	}
	acc, err = s.accSvc.Update(r.Context(), acc)
	if err != nil {
		respondError(w, err, msgAccountNotFound)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Identificador de conta inválido")
		return
	}
	if err := s.accSvc.Delete(r.Context(), userID(r), id); err != nil {
		respondError(w, err, msgAccountNotFound)
		return
	}
	toJSON(w, http.StatusOK, messageResponse{Message: "Conta deletada com sucesso"})
}
