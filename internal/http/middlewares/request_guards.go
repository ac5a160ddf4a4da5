package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Body != nil {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)
		}

		ctx.Next()
	}
}

// RequireContentType rejects write requests whose body is not one of the
// accepted media types. Requests without a body pass.
func RequireContentType(accepted ...string) gin.HandlerFunc {
	ok := make(map[string]struct{}, len(accepted))
	for _, a := range accepted {
		ok[a] = struct{}{}
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := c.GetHeader("Content-Type")
			if ct == "" && c.Request.ContentLength == 0 {
				break
			}

			mediaType, _, err := mime.ParseMediaType(ct)
			if _, allowed := ok[mediaType]; err != nil || !allowed {
				abortJSON(c, http.StatusUnsupportedMediaType, "unsupported_media_type",
					"Content-Type must be JSON, form or multipart")
				return
			}
		}

		c.Next()
	}
}
