package api

import (
	"errors"
	"net/http"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/http/response"
	"github.com/shelfside/shelfside/internal/service"
)

// registerUploadRoutes adds the multipart endpoints. They are plain chi
// handlers because the file parts are streamed to storage.
func (s *Server) registerUploadRoutes() {
	s.router.Post("/api/v1/books", s.handleUploadBook)
	s.router.Put("/api/v1/profile/avatar", s.handleUploadAvatar)
}

// handleUploadBook accepts a multipart form with the EPUB in "file" and the
// optional fields "title", "author" and "cover" (an image data URL).
func (s *Server) handleUploadBook(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireHTTPUser(w, r)
	if !ok {
		return
	}
	if !user.IsAdmin() {
		response.Forbidden(w, "Admin access required", s.logger)
		return
	}

	if limit := s.opts.MaxBookBytes; limit > 0 {
		// The cover travels as base64 text, roughly 4/3 of its size.
		r.Body = http.MaxBytesReader(w, r.Body, limit+2*s.opts.MaxCoverBytes+formOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeFormError(w, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}
	defer file.Close()

	book, err := s.services.Books.Upload(r.Context(), service.UploadRequest{
		FileName:   header.Filename,
		FileSize:   header.Size,
		Content:    file,
		Title:      r.FormValue("title"),
		Author:     r.FormValue("author"),
		CoverData:  r.FormValue("cover"),
		UploaderID: user.ID,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, book, s.logger)
}

// handleUploadAvatar replaces an avatar with the image in the "avatar" form
// field. Admins may pass "user_id" to change another user's avatar.
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireHTTPUser(w, r)
	if !ok {
		return
	}

	if limit := s.opts.MaxAvatarBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeFormError(w, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("avatar")
	if err != nil {
		response.BadRequest(w, "No image uploaded. Use 'avatar' field in multipart form", s.logger)
		return
	}
	defer file.Close()

	updated, err := s.services.Profile.UpdateAvatar(r.Context(), user, r.FormValue("user_id"), file)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, newUserResponse(updated), s.logger)
}

func (s *Server) requireHTTPUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, err := s.requireUser(r)
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return nil, false
	}
	return user, true
}

func (s *Server) writeFormError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.PayloadTooLarge(w, "Upload too large", s.logger)
		return
	}
	response.BadRequest(w, "Failed to parse form data", s.logger)
}
