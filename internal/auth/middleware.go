// Package auth provides optional bearer-token protection for the analysis routes.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anime-shed/ai-image-inspector-go/internal/logger"
	"github.com/anime-shed/ai-image-inspector-go/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

type contextKey string

const subjectKey contextKey = "authSubject"

var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// Subject returns the token subject stored by JWTMiddleware.
func Subject(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if value, ok := ctx.Value(subjectKey).(string); ok && value != "" {
		return value, true
	}
	return "", false
}

// JWTMiddleware accepts HMAC-signed bearer tokens for secret. When audience
// is set, the token's aud claim must contain it.
func JWTMiddleware(secret, audience string) gin.HandlerFunc {
	key := []byte(secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods(hmacMethods)}
	if audience = strings.TrimSpace(audience); audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		tokenString, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthorized(c, err.Error(), err)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		switch {
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			unauthorized(c, "invalid audience", err)
			return
		case err != nil || !token.Valid:
			unauthorized(c, "invalid token", err)
			return
		}

		if claims.Subject != "" {
			c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), subjectKey, claims.Subject))
			c.Set(string(subjectKey), claims.Subject)
		}
		c.Next()
	}
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("token missing")
	}
	return token, nil
}

func unauthorized(c *gin.Context, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"path":       c.Request.URL.Path,
		"ip":         c.ClientIP(),
		"request_id": logger.RequestID(c.Request.Context()),
	}).Warn("Rejected unauthenticated request")
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: message})
}
