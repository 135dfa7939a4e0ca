package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
)

// SavePhoto writes an uploaded profile photo to the upload directory under a
// generated name (photo_<timestamp><ext>) and returns the public URL path.
// The write is a side channel: it has no interaction with any DB transaction.
func SavePhoto(c *gin.Context, file *multipart.FileHeader, uploadDir string) (string, error) {
	ext := filepath.Ext(file.Filename)
	filename := fmt.Sprintf("photo_%d%s", time.Now().UnixNano(), ext)

	if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, filename)); err != nil {
		return "", err
	}

	return "/uploads/" + filename, nil
}
