package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hudoorhq/hudoor_backend/models"
	"github.com/hudoorhq/hudoor_backend/utils"
)

const maxUploadSizeBytes = 5 << 20

var imageMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type uploadSignRequest struct {
	FileName string `json:"fileName" binding:"required"`
	MimeType string `json:"mimeType" binding:"required"`
	Size     int64  `json:"size" binding:"required"`
}

type uploadSignResponse struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ObjectKey string            `json:"objectKey"`
	AccessURL string            `json:"accessUrl"`
	ExpiresAt string            `json:"expiresAt"`
}

// signUploadHandler issues a short-lived signed PUT URL so the mobile app
// can upload an avatar straight to the bucket without proxying the bytes
// through the API.
func signUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req uploadSignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		ext, ok := imageMimeTypes[req.MimeType]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only jpeg and png images are allowed"})
			return
		}
		if req.Size <= 0 || req.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size must be between 1 byte and 5MB"})
			return
		}

		ctx := c.Request.Context()
		companyId, _ := utils.GetCompanyIdFromContext(ctx)
		objectKey := path.Join(companyId, "avatars", uuid.New().String()+ext)

		signed, err := utils.SignUpload(ctx, objectKey, req.MimeType, 15*time.Minute)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": uploadSignResponse{
			UploadURL: signed.UploadURL,
			Method:    signed.Method,
			Headers:   signed.Headers,
			ObjectKey: signed.ObjectKey,
			AccessURL: signed.AccessURL,
			ExpiresAt: signed.ExpiresAt.UTC().Format(time.RFC3339),
		}})
	}
}

// uploadAvatarHandler accepts a multipart "file" form field, stores the
// original image plus a 200px JPEG thumbnail, and points the employee
// record at the new avatar.
func uploadAvatarHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		employeeId, ok := pathId(c, "id")
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size must not exceed 5MB"})
			return
		}

		mimeType := fileHeader.Header.Get("Content-Type")
		ext, allowed := imageMimeTypes[mimeType]
		if !allowed {
			// fall back to the filename when the part has no content type
			switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
			case ".jpg", ".jpeg":
				mimeType, ext, allowed = "image/jpeg", ".jpg", true
			case ".png":
				mimeType, ext, allowed = "image/png", ".png", true
			}
		}
		if !allowed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only jpeg and png images are allowed"})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(io.LimitReader(src, maxUploadSizeBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(data) > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size must not exceed 5MB"})
			return
		}

		ctx := c.Request.Context()
		companyId, _ := utils.GetCompanyIdFromContext(ctx)
		baseName := uuid.New().String()
		objectKey := path.Join(companyId, "avatars", baseName+ext)

		if err := utils.UploadBytesToGCS(ctx, objectKey, data, mimeType); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		thumbKey := ""
		if img, decErr := imaging.Decode(bytes.NewReader(data)); decErr == nil {
			thumb := imaging.Resize(img, 200, 0, imaging.Lanczos)
			var buf bytes.Buffer
			if encErr := imaging.Encode(&buf, thumb, imaging.JPEG); encErr == nil {
				thumbKey = path.Join(companyId, "avatars", fmt.Sprintf("%s_thumb.jpg", baseName))
				if upErr := utils.UploadBytesToGCS(ctx, thumbKey, buf.Bytes(), "image/jpeg"); upErr != nil {
					thumbKey = ""
				}
			}
		}

		avatarUrl := utils.BuildObjectAccessURL(objectKey)
		employee, err := models.UpdateEmployeeAvatar(ctx, employeeId, avatarUrl)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp := gin.H{"employee": employee, "avatarUrl": avatarUrl}
		if thumbKey != "" {
			resp["thumbnailUrl"] = utils.BuildObjectAccessURL(thumbKey)
		}
		c.JSON(http.StatusOK, gin.H{"data": resp})
	}
}
