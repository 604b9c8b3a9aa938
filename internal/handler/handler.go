// Package handler holds request helpers shared by the HTTP handlers.
package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/httputil"
)

// MaxFileSize caps a single uploaded photo or payment proof.
const MaxFileSize = 10 << 20

// Routes is implemented by every handler package.
type Routes interface {
	RegisterRoutes(public, protected *gin.RouterGroup)
}

// ParamUUID parses the named path parameter, answering 400 when it is not a uuid.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.Abort(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// Caller returns the authenticated principal, answering 401 when absent.
func Caller(c *gin.Context) (model.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		httputil.Abort(c, http.StatusUnauthorized, "unauthorized")
	}
	return p, ok
}

// SelfOrStaff admits staff and the user the path parameter names.
func SelfOrStaff(c *gin.Context, name string) (uuid.UUID, bool) {
	p, ok := Caller(c)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := ParamUUID(c, name)
	if !ok {
		return uuid.Nil, false
	}
	if !p.IsStaff() && p.UserID != id {
		httputil.Abort(c, http.StatusForbidden, "permission denied")
		return uuid.Nil, false
	}
	return id, true
}

// FormFile reads an optional multipart file. A missing field yields nil.
func FormFile(c *gin.Context, field string) (*model.Photo, bool) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, true
	}
	if err != nil {
		httputil.Abort(c, http.StatusBadRequest, "invalid upload")
		return nil, false
	}
	if fh.Size > MaxFileSize {
		httputil.Abort(c, http.StatusRequestEntityTooLarge, "file exceeds 10MB")
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		httputil.Abort(c, http.StatusBadRequest, "invalid upload")
		return nil, false
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		httputil.Abort(c, http.StatusBadRequest, "invalid upload")
		return nil, false
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(body)
	}
	return &model.Photo{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        int64(len(body)),
		Body:        body,
	}, true
}
