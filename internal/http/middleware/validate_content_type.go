package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/art-critique/internal/models"
	"github.com/phambaophuc/art-critique/internal/services"
)

// RequireMultipart rejects upload requests that are not multipart/form-data.
// Without a multipart body there is no image field to read.
func RequireMultipart() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		contentType := ctx.GetHeader("Content-Type")

		if !strings.HasPrefix(strings.ToLower(contentType), "multipart/form-data") {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, models.APIResponse{
				Success: false,
				Error:   services.ErrMissingInput.Error(),
				Code:    services.Code(services.ErrMissingInput),
			})
			return
		}

		ctx.Next()
	}
}
