// Category handlers: CRUD with the referential delete guard.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/financehero/ledger/internal/finance"
)

const msgCategoryNotFound = "Categoria não encontrada ou não pertence ao usuário"

func (s *Server) postCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := r.Context().Value(ctxKeyPostCategory).(finance.Category)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}
	c.UserID = userID(r)
	cat, err := s.catSvc.Create(r.Context(), c)
	if err != nil {
		respondError(w, err, msgCategoryNotFound)
		return
	}
	toJSON(w, http.StatusCreated, toCategoryResponse(cat))
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	var typ finance.CategoryType
	if raw := r.URL.Query().Get("type"); raw != "" {
		typ = finance.CategoryType(strings.ToUpper(raw))
		if !typ.Valid() {
			writeErr(w, http.StatusBadRequest, "Tipo de categoria inválido")
			return
		}
	}
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	cats, err := s.catSvc.List(r.Context(), userID(r), typ, includeInactive)
	if err != nil {
		respondError(w, err, msgCategoryNotFound)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Identificador de categoria inválido")
		return
	}
	cat, err := s.catSvc.Get(r.Context(), userID(r), id)
	if err != nil {
		respondError(w, err, msgCategoryNotFound)
		return
	}
	toJSON(w, http.StatusOK, toCategoryResponse(cat))
}

// patchCategory handles PATCH /categories/{id}.
func (s *Server) patchCategory(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Identificador de categoria inválido")
		return
	}
	var payload struct {
		Name        *string               `json:"name"`
		Type        *finance.CategoryType `json:"type"`
		Description *string               `json:"description"`
		Color       *string               `json:"color"`
		Icon        *string               `json:"icon"`
		Active      *bool                 `json:"active"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeErr(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	uid := userID(r)
	cat, err := s.catSvc.Get(r.Context(), uid, id)
	if err != nil {
		respondError(w, err, msgCategoryNotFound)
		return
	}
	if payload.Name != nil {
		cat.Name = *payload.Name
	}
	if payload.Type != nil {
		cat.Type = *payload.Type
	}
	if payload.Description != nil {
		cat.Description = *payload.Description
	}
	if payload.Color != nil {
		cat.Color = *payload.Color
	}
	if payload.Icon != nil {
		cat.Icon = *payload.Icon
	}
	if payload.Active != nil {
		cat.Active = *payload.Active
	}
	cat, err = s.catSvc.Update(r.Context(), cat)
	if err != nil {
		respondError(w, err, msgCategoryNotFound)
		return
	}
	toJSON(w, http.StatusOK, toCategoryResponse(cat))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Identificador de categoria inválido")
		return
	}
	if err := s.catSvc.Delete(r.Context(), userID(r), id); err != nil {
		respondError(w, err, msgCategoryNotFound)
		return
	}
	toJSON(w, http.StatusOK, messageResponse{Message: "Categoria deletada com sucesso"})
}
