package httpapi

import (
	"net/http"
	"strings"

	"github.com/nevindra/pedforum"
)

type createMessageRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.store.ListMessages(r.Context())
	if err != nil {
		s.internalError(w, r, "Ошибка загрузки сообщений", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Текст сообщения обязателен")
		return
	}
	message, err := s.store.CreateMessage(r.Context(), pedforum.Message{
		Author: strings.TrimSpace(req.Author),
		Text:   req.Text,
	})
	if err != nil {
		s.internalError(w, r, "Ошибка сохранения сообщения", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": message})
}
