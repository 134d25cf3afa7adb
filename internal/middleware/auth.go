package middleware

import (
	"errors"
	"smartqa_backend/internal/config"
	"smartqa_backend/internal/model"
	"smartqa_backend/internal/service"
	"smartqa_backend/internal/util"
	"smartqa_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	// SSE 等无法带 header 的场景
	return c.Query("token")
}

// AuthMiddleware 校验 token、黑名单以及用户是否仍然存在
func AuthMiddleware(cfg *config.Config, authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		revoked, err := authService.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			util.LogInternalError(c, err)
			c.Abort()
			return
		}
		if revoked {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		user, err := authService.CurrentUser(claims)
		if err != nil {
			if errors.Is(err, util.ErrUserNotFound) {
				util.Unauthorized(c)
			} else {
				util.LogInternalError(c, err)
			}
			c.Abort()
			return
		}
		// 以数据库中的角色为准
		claims.Role = user.Role

		c.Set("user", claims)
		c.Set("currentUser", user)
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		util.Forbidden(c)
		c.Abort()
	}
}

// CurrentUser AuthMiddleware 加载的用户记录
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get("currentUser"); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}
