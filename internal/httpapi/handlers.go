package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"archviz-studio/internal/catalog"
	"archviz-studio/internal/history"
	"archviz-studio/internal/media"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/watermark"

	"github.com/gin-gonic/gin"
)

type generationResponse struct {
	ID          string      `json:"id"`
	Mode        prompt.Mode `json:"mode"`
	Image       string      `json:"image"`
	Instruction string      `json:"instruction"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type attachmentView struct {
	Ordinal int         `json:"ordinal"`
	Ref     string      `json:"ref"`
	Role    prompt.Role `json:"role"`
	Label   string      `json:"label"`
}

type previewResponse struct {
	Mode        prompt.Mode      `json:"mode"`
	Instruction string           `json:"instruction"`
	Images      []attachmentView `json:"images"`
	Clauses     []string         `json:"clauses"`
	Fallbacks   []string         `json:"fallbacks,omitempty"`
}

type optionView struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

func toGeneration(rec history.Record) generationResponse {
	return generationResponse{
		ID:          rec.ID,
		Mode:        rec.Mode,
		Image:       rec.Image.DataURL(),
		Instruction: rec.Instruction,
		CreatedAt:   rec.CreatedAt,
	}
}

// handleGenerate accepts a multipart form: "image" (required), repeated
// "additional" and "reference" files, optional "site", "material1" and
// "material2" files, a "settings" JSON object and a free-form "args" caption.
func (s *Server) handleGenerate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	if err := c.Request.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, apiError{Error: "upload too large"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	req, err := requestFromForm(c.Request.MultipartForm)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	rec, err := s.studio.Generate(ctx, c.GetString(ctxUserID), s.tier(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGeneration(rec))
}

func (s *Server) tier(c *gin.Context) watermark.Tier {
	if raw := strings.TrimSpace(c.GetHeader(headerTier)); raw != "" {
		return watermark.ParseTier(raw)
	}
	return s.defaultTier
}

func requestFromForm(form *multipart.Form) (prompt.Request, error) {
	var req prompt.Request
	if raw := strings.TrimSpace(formValue(form, "settings")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			return prompt.Request{}, &prompt.ConfigError{Field: "settings", Reason: "invalid JSON"}
		}
	}
	if raw := formValue(form, "args"); raw != "" {
		req = prompt.ParseArgs(raw, req)
	}

	var err error
	if req.BaseImage, err = formImage(form, "image"); err != nil {
		return prompt.Request{}, err
	}
	if req.AdditionalBaseImages, err = formImages(form, "additional"); err != nil {
		return prompt.Request{}, err
	}
	if req.SiteImage, err = formImage(form, "site"); err != nil {
		return prompt.Request{}, err
	}
	if req.ReferenceImages, err = formImages(form, "reference"); err != nil {
		return prompt.Request{}, err
	}
	if req.Material1Image, err = formImage(form, "material1"); err != nil {
		return prompt.Request{}, err
	}
	if req.Material2Image, err = formImage(form, "material2"); err != nil {
		return prompt.Request{}, err
	}
	return req, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func formImage(form *multipart.Form, key string) (media.Image, error) {
	files := form.File[key]
	if len(files) == 0 {
		return media.Image{}, nil
	}
	return readImage(key, files[0])
}

func formImages(form *multipart.Form, key string) ([]media.Image, error) {
	var out []media.Image
	for i, fh := range form.File[key] {
		img, err := readImage(fmt.Sprintf("%s[%d]", key, i), fh)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

func readImage(field string, fh *multipart.FileHeader) (media.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return media.Image{}, &prompt.ConfigError{Field: field, Reason: "cannot open upload"}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return media.Image{}, &prompt.ConfigError{Field: field, Reason: "cannot read upload"}
	}
	return media.Image{Data: data, MIMEType: media.NormalizeMIMEType(fh.Header.Get("Content-Type"), data)}, nil
}

func (s *Server) handlePrompt(c *gin.Context) {
	var req prompt.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return
	}
	compiled, err := s.studio.Preview(req)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := previewResponse{
		Mode:        compiled.Mode,
		Instruction: compiled.Instruction,
		Images:      make([]attachmentView, 0, len(compiled.Images)),
		Clauses:     compiled.Clauses,
	}
	for _, a := range compiled.Images {
		resp.Images = append(resp.Images, attachmentView{Ordinal: a.Ordinal, Ref: prompt.Ref(a.Ordinal), Role: a.Role, Label: a.Role.Label()})
	}
	for _, m := range compiled.Fallbacks {
		resp.Fallbacks = append(resp.Fallbacks, m.String())
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, 100)
	}
	recs, err := s.studio.History(c.Request.Context(), c.GetString(ctxUserID), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]generationResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toGeneration(r))
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (s *Server) handleRecord(c *gin.Context) {
	rec, err := s.studio.Record(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleRestore(c *gin.Context) {
	req, err := s.studio.Restore(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) handleCatalog(c *gin.Context) {
	out := make(map[string][]optionView)
	for _, kind := range catalog.Kinds() {
		opts := catalog.Options(kind)
		views := make([]optionView, 0, len(opts))
		for _, o := range opts {
			views = append(views, optionView{Key: o.Key, Name: o.Name})
		}
		out[kind] = views
	}
	c.JSON(http.StatusOK, out)
}
