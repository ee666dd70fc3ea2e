package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nevindra/pedforum"
)

type createMaterialRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	FileType    string `json:"file_type"`
}

func (s *Server) listMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.store.ListMaterials(r.Context())
	if err != nil {
		s.internalError(w, r, "Ошибка загрузки материалов", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"materials": materials})
}

func (s *Server) createMaterial(w http.ResponseWriter, r *http.Request) {
	var req createMaterialRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Название материала обязательно")
		return
	}
	material, err := s.store.CreateMaterial(r.Context(), pedforum.Material{
		Title:       req.Title,
		Description: req.Description,
		Author:      strings.TrimSpace(req.Author),
		Category:    strings.TrimSpace(req.Category),
		FileType:    strings.TrimSpace(req.FileType),
	})
	if err != nil {
		s.internalError(w, r, "Ошибка сохранения материала", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"material": material})
}

func (s *Server) deleteMaterial(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "ID материала обязателен")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Некорректный ID материала")
		return
	}
	err = s.store.DeleteMaterial(r.Context(), id)
	if errors.Is(err, pedforum.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Материал не найден")
		return
	}
	if err != nil {
		s.internalError(w, r, "Ошибка удаления материала", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}
