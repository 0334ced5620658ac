package handler

import (
	"net/http"

	"github.com/openkanban/kanband/internal/api"
	"github.com/openkanban/kanband/internal/utils"
)

func (h *Handler) GetBoards(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}

	boards, err := h.board.GetAll(user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	response := make([]api.BoardResponse, len(boards))
	for i, board := range boards {
		response[i] = api.NewBoardResponse(board, user.Id)
	}
	writeJSON(w, response)
}

func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}

	var body api.CreateBoardRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	board, err := h.board.Create(body.Title, user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, api.NewBoardResponse(board, user.Id))
}

func (h *Handler) RenameBoard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	boardId, err := urlParamInt64(r, "boardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.RenameBoardRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	board, err := h.board.Rename(boardId, body.Title, user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.NewBoardResponse(board, user.Id))
}

func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	boardId, err := urlParamInt64(r, "boardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.board.Delete(boardId, user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.StatusResponse{Success: true, Message: "Board deleted"})
}

func (h *Handler) ShareBoard(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	boardId, err := urlParamInt64(r, "boardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.ShareBoardRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.board.Share(boardId, body.Username, user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.StatusResponse{Success: true, Message: "Board shared with @" + body.Username})
}

func (h *Handler) SharedUsers(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	boardId, err := urlParamInt64(r, "boardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	users, err := h.board.SharedUsers(boardId, user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	response := make([]api.UserResponse, len(users))
	for i, u := range users {
		response[i] = api.UserResponse{Username: u.Username}
	}
	writeJSON(w, response)
}

func (h *Handler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	user := requestUser(w, r)
	if user == nil {
		return
	}
	boardId, err := urlParamInt64(r, "boardId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.ShareBoardRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.board.Revoke(boardId, body.Username, user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.StatusResponse{Success: true, Message: "Access revoked for @" + body.Username})
}
