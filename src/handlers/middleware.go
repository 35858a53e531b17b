package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/username/gescom/backend/src/config"
	"github.com/username/gescom/backend/src/database"
	"github.com/username/gescom/backend/src/logger"
	"github.com/username/gescom/backend/src/model"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	userIDContextKey    contextKey = "userID"
	tenantIDContextKey  contextKey = "tenantID"
)

// GetUserIDFromContext extracts the authenticated user id set by AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey).(int64)
	return id, ok
}

// GetTenantIDFromContext extracts the tenant scope set by TenantMiddleware.
func GetTenantIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(tenantIDContextKey).(int64)
	return id, ok
}

// ContextualLoggerMiddleware attaches a request-scoped logger carrying a
// fresh request id.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctxLogger := logger.L.With(slog.String("requestID", requestID))
		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware validates the bearer token and the backing session row, then
// puts the user id on the context and enriches the request logger.
func (h *UserHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger := logger.FromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			ctxLogger.Debug("authorization header missing", "path", r.URL.Path)
			sendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			sendJSONError(w, "Malformed token", http.StatusUnauthorized)
			return
		}

		userIDStr, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			ctxLogger.Warn("token validation failed", "path", r.URL.Path, "error", err)
			sendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		if _, err := model.GetSessionByToken(database.DB, tokenString); err != nil {
			ctxLogger.Warn("session validation failed", "path", r.URL.Path, "error", err)
			sendJSONError(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}

		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			ctxLogger.Error("invalid user id in token", "userIDStr", userIDStr, "error", err)
			sendJSONError(w, "Invalid user ID in token", http.StatusInternalServerError)
			return
		}

		enriched := ctxLogger.With(slog.Int64("userID", userID))
		ctx := logger.ToContext(r.Context(), enriched)
		ctx = context.WithValue(ctx, userIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TenantMiddleware resolves the X-Tenant-ID header, falling back to the
// user's sole tenant when the header is absent, and verifies the
// authenticated user is a member before any tenant-scoped work runs.
// Requests for tenants the user does not belong to get 403, never data.
func (h *UserHandler) TenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger := logger.FromContext(r.Context())

		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			sendJSONError(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		var tenantID int64
		header := r.Header.Get("X-Tenant-ID")
		if header == "" {
			// No header: a user with exactly one tenant gets it by default.
			tenants, err := model.ListTenantsForUser(database.DB, userID)
			if err != nil {
				ctxLogger.Error("tenant lookup failed", "error", err)
				sendJSONError(w, "Failed to resolve tenant", http.StatusInternalServerError)
				return
			}
			if len(tenants) != 1 {
				sendJSONError(w, "X-Tenant-ID header required", http.StatusBadRequest)
				return
			}
			tenantID = tenants[0].ID
		} else {
			var err error
			tenantID, err = strconv.ParseInt(header, 10, 64)
			if err != nil || tenantID <= 0 {
				sendJSONError(w, "Invalid X-Tenant-ID header", http.StatusBadRequest)
				return
			}
		}

		member, err := model.UserBelongsToTenant(database.DB, userID, tenantID)
		if err != nil {
			ctxLogger.Error("tenant membership check failed", "tenantID", tenantID, "error", err)
			sendJSONError(w, "Failed to verify tenant access", http.StatusInternalServerError)
			return
		}
		if !member {
			ctxLogger.Warn("tenant access denied", "tenantID", tenantID)
			sendJSONError(w, "Access to this tenant is forbidden", http.StatusForbidden)
			return
		}

		enriched := ctxLogger.With(slog.Int64("tenantID", tenantID))
		ctx := logger.ToContext(r.Context(), enriched)
		ctx = context.WithValue(ctx, tenantIDContextKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminMiddleware restricts a route group to the configured admin emails.
func (h *UserHandler) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		if !ok {
			sendJSONError(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		user, err := model.GetUserByID(database.DB, userID)
		if err != nil {
			sendJSONError(w, "Failed to verify user", http.StatusInternalServerError)
			return
		}
		if !isAdmin(user.Email) {
			logger.FromContext(r.Context()).Warn("admin route denied", "path", r.URL.Path)
			sendJSONError(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAdmin(email string) bool {
	for _, adminEmail := range config.Cfg.AdminEmails {
		if strings.EqualFold(email, adminEmail) {
			return true
		}
	}
	return false
}
