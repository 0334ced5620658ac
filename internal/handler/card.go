package handler

import (
	"net/http"

	"github.com/openkanban/kanband/internal/api"
	"github.com/openkanban/kanband/internal/domain"
	"github.com/openkanban/kanband/internal/service"
	"github.com/openkanban/kanband/internal/utils"
)

func (h *Handler) GetCards(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	boardId, err := urlParamInt64(r, "boardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cards, err := h.cards.Cards(boardId, *user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.NewCardResponses(cards))
}

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	boardId, err := urlParamInt64(r, "boardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.CreateCardRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	card, err := h.cards.Add(boardId, domain.Card{
		Text:              body.Text,
		Description:       body.Description,
		AssignedTo:        body.AssignedTo,
		ListId:            body.ListId,
		DueDate:           body.DueDate,
		Recurrence:        domain.Recurrence(body.Recurrence),
		RecurrenceEndDate: body.RecurrenceEndDate,
	}, *user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, api.NewCardResponse(card))
}

func (h *Handler) RenameCard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	cardId, err := urlParamInt64(r, "cardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.RenameCardRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	card, err := h.cards.Rename(cardId, body.Text, *user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.NewCardResponse(card))
}

func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	cardId, err := urlParamInt64(r, "cardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdateCardRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	update := service.CardUpdate{
		Text:              body.Text,
		Description:       body.Description,
		AssignedTo:        body.AssignedTo,
		DueDate:           body.DueDate,
		RecurrenceEndDate: body.RecurrenceEndDate,
	}
	if body.Recurrence != nil {
		recurrence := domain.Recurrence(*body.Recurrence)
		update.Recurrence = &recurrence
	}

	card, err := h.cards.Update(cardId, update, *user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.NewCardResponse(card))
}

func (h *Handler) MoveCard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	cardId, err := urlParamInt64(r, "cardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.MoveCardRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err = h.cards.Move(cardId, service.CardMove{
		SourceListId:      body.SourceListId,
		DestinationListId: body.DestinationListId,
		SourceIndex:       body.SourceIndex,
		DestinationIndex:  body.DestinationIndex,
	}, *user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.StatusResponse{Success: true})
}

func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	cardId, err := urlParamInt64(r, "cardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.cards.Delete(cardId, *user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.StatusResponse{Success: true, Message: "Card deleted"})
}

func (h *Handler) CompleteCard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	cardId, err := urlParamInt64(r, "cardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	card, err := h.cards.Complete(cardId, *user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.CompleteCardResponse{
		Success: true,
		Card:    api.NewCardResponse(card),
		Message: "Task completed",
	})
}

func (h *Handler) SendReminder(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	cardId, err := urlParamInt64(r, "cardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.cards.SendReminder(cardId, *user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.StatusResponse{Success: true, Message: "Reminder email sent"})
}
