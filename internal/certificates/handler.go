package certificates

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"certificate-backend/internal/shared/server/middleware"
	"certificate-backend/internal/shared/server/respond"
)

const defaultMaxUploadBytes = 10 << 20

// Handler exposes certificate endpoints. The upload endpoint acknowledges
// immediately and hands the pipeline to a background runner so the user
// can leave the page while verification runs.
type Handler struct {
	Service        *Service
	Repo           Repo
	MaxUploadBytes int64

	// Spawn runs the pipeline detached from the request. The default
	// spawns a goroutine with a fresh context; bootstrap installs one
	// tied to the server's lifetime.
	Spawn func(task func(ctx context.Context))
}

// Upload handles POST /certificates: multipart file + title + url.
func (h *Handler) Upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing user identity", nil)
		return
	}

	title := c.PostForm("title")
	courseURL := strings.TrimSpace(c.PostForm("url"))
	if courseURL == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "url is required", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "file is required", nil)
		return
	}
	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	if fileHeader.Size > maxBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "too_large", "file exceeds upload limit", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "cannot read file", nil)
		return
	}
	defer f.Close()

	// The whole file is needed up front: the thumbnail, checksum, and
	// blob row all work on the full byte slice.
	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "cannot read file", nil)
		return
	}
	if int64(len(content)) > maxBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "too_large", "file exceeds upload limit", nil)
		return
	}

	up := Upload{
		UserID:      userID,
		Title:       title,
		CourseURL:   courseURL,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	}

	h.spawn(func(ctx context.Context) {
		h.Service.Process(ctx, up)
	})

	respond.Accepted(c, gin.H{"status": "certificate accepted for review"})
}

// List handles GET /certificates.
func (h *Handler) List(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing user identity", nil)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	certs, err := h.Repo.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "cannot list certificates", nil)
		return
	}

	out := make([]certificateResponse, 0, len(certs))
	for _, cert := range certs {
		out = append(out, toResponse(cert))
	}
	respond.OK(c, gin.H{"certificates": out})
}

// Get handles GET /certificates/:id.
func (h *Handler) Get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing user identity", nil)
		return
	}

	id := c.Param("id")
	cert, err := h.Repo.GetByID(c.Request.Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "certificate not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "cannot load certificate", nil)
		return
	}

	c.Set("certificateId", cert.ID)
	respond.OK(c, toResponse(cert))
}

func (h *Handler) spawn(task func(ctx context.Context)) {
	if h.Spawn != nil {
		h.Spawn(task)
		return
	}
	go task(context.Background())
}
