package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/financehero/ledger/internal/errs"
)

// errorResponse is the standard error payload for the API. Messages are
// user-facing and written in Portuguese.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse is the payload for delete confirmations.
type messageResponse struct {
	Message string `json:"message"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	toJSON(w, status, errorResponse{Error: msg})
}

func unauthorized(w http.ResponseWriter) {
	writeErr(w, http.StatusUnauthorized, "Não autorizado")
}

// respondError normalizes domain errors into HTTP status and user message.
// notFoundMsg is the message used when a plain errs.ErrNotFound bubbles up
// without naming which reference was missing.
func respondError(w http.ResponseWriter, err error, notFoundMsg string) {
	detail := err.Error()
	switch {
	case errors.Is(err, errs.ErrInvalid):
		writeErr(w, http.StatusBadRequest, invalidMessage(detail))
	case errors.Is(err, errs.ErrNotFound):
		switch {
		case strings.Contains(detail, "account"):
			writeErr(w, http.StatusNotFound, "Conta não encontrada ou não pertence ao usuário")
		case strings.Contains(detail, "category"):
			writeErr(w, http.StatusNotFound, "Categoria não encontrada ou não pertence ao usuário")
		default:
			writeErr(w, http.StatusNotFound, notFoundMsg)
		}
	case errors.Is(err, errs.ErrConflict):
		writeErr(w, http.StatusConflict, conflictMessage(detail))
	case errors.Is(err, errs.ErrConsistency):
		writeErr(w, http.StatusInternalServerError, "Falha de consistência ao atualizar o saldo")
	case errors.Is(err, errs.ErrUnauthorized):
		unauthorized(w)
	default:
		writeErr(w, http.StatusInternalServerError, "Erro interno do servidor")
	}
}

func invalidMessage(detail string) string {
	switch {
	case strings.Contains(detail, "transaction type"):
		return "Tipo de transação inválido"
	case strings.Contains(detail, "transfer"):
		return "Transferências ainda não são suportadas"
	case strings.Contains(detail, "amount must be greater than zero"):
		return "O valor deve ser maior que zero"
	case strings.Contains(detail, "currency"):
		return "A moeda do valor não corresponde à moeda da conta"
	case strings.Contains(detail, "expense category"):
		return "Para gastos, use uma categoria do tipo EXPENSE"
	case strings.Contains(detail, "account type"):
		return "Tipo de conta inválido"
	case strings.Contains(detail, "category type"):
		return "Tipo de categoria inválido"
	case strings.Contains(detail, "required"):
		return "Todos os campos são obrigatórios"
	default:
		return "Requisição inválida"
	}
}

func conflictMessage(detail string) string {
	switch {
	case strings.Contains(detail, "an account named"):
		return "Já existe uma conta com este nome"
	case strings.Contains(detail, "a category named"):
		return "Já existe uma categoria com este nome"
	case strings.Contains(detail, "account is referenced"):
		return "Não é possível excluir a conta: existem transações associadas a ela"
	case strings.Contains(detail, "category is referenced"):
		return "Não é possível excluir a categoria: existem transações associadas a ela"
	default:
		return "Conflito com o estado atual dos dados"
	}
}
