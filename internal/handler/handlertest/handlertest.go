// Package handlertest wires handlers onto a bare engine for httptest.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/handler"
	"github.com/riveravet/clinic-api/internal/middleware"
	"github.com/riveravet/clinic-api/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

// Owner, Vet and Admin are ready made callers.
func Owner() *model.Principal {
	return &model.Principal{UserID: uuid.New(), Username: "owner", Role: model.RoleUser}
}

func Vet() *model.Principal {
	return &model.Principal{UserID: uuid.New(), Username: "vet", Role: model.RoleVet}
}

func Admin() *model.Principal {
	return &model.Principal{UserID: uuid.New(), Username: "admin", Role: model.RoleAdmin}
}

// Engine mounts h under /api/v1. A non-nil caller is set as the principal
// of every protected request; nil leaves protected routes unauthenticated.
func Engine(h handler.Routes, caller *model.Principal) *gin.Engine {
	r := gin.New()
	public := r.Group("/api/v1")
	protected := r.Group("/api/v1")
	protected.Use(func(c *gin.Context) {
		if caller != nil {
			c.Set(middleware.ContextPrincipal, *caller)
		}
		c.Next()
	})
	h.RegisterRoutes(public, protected)
	return r
}

// JSON performs a request with body encoded as JSON.
func JSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// File is one multipart file part.
type File struct {
	Field       string
	Name        string
	ContentType string
	Body        []byte
}

// Multipart performs a multipart/form-data request.
func Multipart(r http.Handler, method, path string, fields map[string]string, files ...File) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.Field+`"; filename="`+f.Name+`"`)
		h.Set("Content-Type", f.ContentType)
		part, _ := mw.CreatePart(h)
		_, _ = io.Copy(part, bytes.NewReader(f.Body))
	}
	_ = mw.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Decode unmarshals the data member of a success envelope into v.
func Decode(w *httptest.ResponseRecorder, v interface{}) error {
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, v)
}
