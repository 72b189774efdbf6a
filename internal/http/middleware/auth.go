package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learnsync/internal/http/response"
	"github.com/yungbote/learnsync/internal/platform/apierr"
	"github.com/yungbote/learnsync/internal/platform/ctxutil"
	"github.com/yungbote/learnsync/internal/platform/logger"
	"github.com/yungbote/learnsync/internal/services"
)

var errMissingToken = errors.New("missing bearer token")

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("Middleware", "AuthMiddleware"), authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			response.RespondServiceError(c, "unauthorized", apierr.Unauthorized(errMissingToken))
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("rejected bearer token", "error", err)
			response.RespondServiceError(c, "unauthorized", apierr.Unauthorized(err))
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.AccountID == uuid.Nil {
			response.RespondServiceError(c, "forbidden", apierr.Forbidden(nil))
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
