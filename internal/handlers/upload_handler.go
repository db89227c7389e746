package handlers

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"baytna-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadImage stores the multipart field "image" under a random name and
// returns its public URL. The type is sniffed from the content, not trusted
// from the client.
func (h *Handler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Upload.MaxBytes+1024)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.RespondError(c, utils.ErrValidation("image file is required (max %d MB)", h.cfg.Upload.MaxBytes>>20))
		return
	}
	defer file.Close()
	if header.Size > h.cfg.Upload.MaxBytes {
		utils.RespondError(c, utils.ErrValidation("image is larger than %d MB", h.cfg.Upload.MaxBytes>>20))
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		utils.RespondError(c, utils.ErrValidation("cannot read image"))
		return
	}
	ext, ok := imageExtensions[http.DetectContentType(head[:n])]
	if !ok {
		utils.RespondError(c, utils.ErrValidation("only jpeg, png, webp and gif images are accepted"))
		return
	}

	if err := os.MkdirAll(h.cfg.Upload.Dir, 0o755); err != nil {
		utils.RespondError(c, err)
		return
	}
	name := uuid.NewString() + ext
	if err := storeUpload(filepath.Join(h.cfg.Upload.Dir, name), head[:n], file); err != nil {
		utils.RespondError(c, err)
		return
	}

	log.Printf("[Upload] %s stored by user %d", name, currentUser(c).ID)
	utils.APIResponse(c, http.StatusCreated, true, "image uploaded", gin.H{"url": "/uploads/" + name})
}

// storeUpload writes head followed by the rest of r to path. A failed write
// leaves no partial file behind.
func storeUpload(path string, head []byte, r io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err = dst.Write(head); err == nil {
		_, err = io.Copy(dst, r)
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			log.Printf("[Upload] remove partial %s: %v", path, rerr)
		}
		return err
	}
	return nil
}
