package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/nevindra/pedforum/extract"
)

// uploadRequest is the body of POST /upload-file and POST /upload-to-s3.
type uploadRequest struct {
	File     string `json:"file"` // base64, optionally as a data URL
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

type uploadFileResponse struct {
	HTML     string          `json:"html"`
	Images   []extract.Image `json:"images"`
	FileName string          `json:"fileName"`
	FileType string          `json:"fileType"`
}

type uploadToStorageResponse struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Key      string `json:"key"`
	Pages    int    `json:"pages,omitempty"`
}

// decodeFile accepts plain base64 or a "data:<mime>;base64," URL.
func decodeFile(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ";base64,"); i >= 0 {
			s = s[i+len(";base64,"):]
		}
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}

// extension derives the declared extension from the file name, falling back
// to fileType for names without one.
func (req uploadRequest) extension() string {
	if !strings.Contains(req.FileName, ".") && req.FileType != "" {
		return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(req.FileType)), ".")
	}
	return extract.ExtensionFromFileName(req.FileName)
}

// readUpload decodes and validates the common upload body. It writes the
// error response itself.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (uploadRequest, []byte, bool) {
	var req uploadRequest
	if !s.decodeBody(w, r, &req) {
		return req, nil, false
	}
	if req.File == "" || req.FileName == "" {
		writeError(w, http.StatusBadRequest, "Файл и имя файла обязательны")
		return req, nil, false
	}
	data, err := decodeFile(req.File)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Некорректные данные файла: ожидается base64")
		return req, nil, false
	}
	return req, data, true
}

func (s *Server) extract(ctx context.Context, data []byte, ext string) (extract.Content, error) {
	if ce, ok := s.extractor.(contextExtractor); ok {
		return ce.ExtractContext(ctx, data, ext)
	}
	return s.extractor.Extract(data, ext)
}

// uploadFile extracts HTML and images from an uploaded document.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	req, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	ext := req.extension()

	content, err := s.extract(r.Context(), data, ext)
	if errors.Is(err, extract.ErrUnsupportedFormat) {
		writeError(w, http.StatusBadRequest, "Неподдерживаемый формат: "+ext)
		return
	}
	if err != nil {
		s.internalError(w, r, "Ошибка обработки файла: "+err.Error(), err)
		return
	}
	if len(content.Skipped) > 0 {
		s.logger.Warn("httpapi: images skipped during extraction",
			"file_name", req.FileName, "skipped", len(content.Skipped))
	}

	writeJSON(w, http.StatusOK, uploadFileResponse{
		HTML:     content.HTML,
		Images:   content.Images,
		FileName: req.FileName,
		FileType: ext,
	})
}

// uploadToStorage stores the file in object storage. PDFs also report their
// page count when it can be determined.
func (s *Server) uploadToStorage(w http.ResponseWriter, r *http.Request) {
	if s.uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "Хранилище файлов не настроено")
		return
	}
	req, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	obj, err := s.uploader.Upload(r.Context(), req.FileName, data)
	if err != nil {
		s.internalError(w, r, "Ошибка загрузки файла: "+err.Error(), err)
		return
	}

	resp := uploadToStorageResponse{URL: obj.URL, FileName: req.FileName, Key: obj.Key}
	if req.extension() == string(extract.FormatPDF) {
		if n, err := extract.PageCount(data); err == nil {
			resp.Pages = n
		} else {
			s.logger.Debug("httpapi: page count unavailable", "file_name", req.FileName, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
