package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/oromiahinlala/tourism-backend/internal/model"
)

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// uploadError is a client error in an uploaded file.
type uploadError struct{ msg string }

func (e *uploadError) Error() string { return e.msg }

// readUpload returns the image sent in the multipart field, or nil when the
// request carries no such file. Files over maxBytes, with a non-image
// extension or with non-image content are rejected with *uploadError.
func readUpload(c echo.Context, field string, maxBytes int64) (*model.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, &uploadError{msg: "Invalid multipart form"}
	}
	if fh.Size > maxBytes {
		return nil, &uploadError{msg: fmt.Sprintf("%s exceeds the %d byte limit", field, maxBytes)}
	}
	if !allowedImageExt[strings.ToLower(filepath.Ext(fh.Filename))] {
		return nil, &uploadError{msg: "Only image files are allowed"}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, &uploadError{msg: fmt.Sprintf("%s exceeds the %d byte limit", field, maxBytes)}
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, &uploadError{msg: "Only image files are allowed"}
	}
	return &model.Upload{Filename: filepath.Base(fh.Filename), ContentType: mt.String(), Data: data}, nil
}

// uploadFailed writes the response for a readUpload error.
func uploadFailed(c echo.Context, log *zap.Logger, err error) error {
	var ue *uploadError
	if errors.As(err, &ue) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ue.msg})
	}
	return internalError(c, log, "read upload", err)
}
