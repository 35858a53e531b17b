package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/gescom/backend/src/config"
	"github.com/username/gescom/backend/src/database"
	"github.com/username/gescom/backend/src/logger"
	"github.com/username/gescom/backend/src/model"
	"github.com/username/gescom/backend/src/models"
	"github.com/username/gescom/backend/src/security"
	"github.com/username/gescom/backend/src/security/validation"
	"github.com/username/gescom/backend/src/services"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
var passwordRegex = regexp.MustCompile(`^.{6,}$`)

type UserHandler struct {
	authService *security.AuthService
	mfaService  *services.MFAService
	cache       *cache.Cache
}

func NewUserHandler(authService *security.AuthService, mfaService *services.MFAService, reportCache *cache.Cache) *UserHandler {
	return &UserHandler{
		authService: authService,
		mfaService:  mfaService,
		cache:       reportCache,
	}
}

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	logger.L.Warn("sending JSON error to client", "message", message, "statusCode", statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func sendJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("error encoding JSON response", "error", err)
	}
}

// updateUserLoginInfo updates the user's login stats and records the event.
func updateUserLoginInfo(userID int64, r *http.Request) {
	tx, err := database.DB.Begin()
	if err != nil {
		logger.L.Error("failed to begin transaction for login info update", "userID", userID, "error", err)
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE users
		SET login_count = login_count + 1,
		    last_login_at = CURRENT_TIMESTAMP,
		    last_login_ip = ?
		WHERE id = ?`,
		r.RemoteAddr, userID)
	if err != nil {
		logger.L.Error("failed to update users table on login", "userID", userID, "error", err)
		return
	}

	_, err = tx.Exec(`
		INSERT INTO login_history (user_id, ip_address, user_agent)
		VALUES (?, ?, ?)`,
		userID, r.RemoteAddr, r.UserAgent())
	if err != nil {
		logger.L.Error("failed to insert into login_history", "userID", userID, "error", err)
		return
	}

	if err := tx.Commit(); err != nil {
		logger.L.Error("failed to commit login info update", "userID", userID, "error", err)
	}
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Username   string `json:"username"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		TenantName string `json:"tenant_name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	credentials.Username = validation.SanitizeText(strings.TrimSpace(credentials.Username))
	credentials.Email = strings.ToLower(validation.SanitizeText(strings.TrimSpace(credentials.Email)))
	credentials.Password = strings.TrimSpace(credentials.Password)
	credentials.TenantName = validation.SanitizeText(strings.TrimSpace(credentials.TenantName))

	if credentials.Username == "" && strings.Contains(credentials.Email, "@") {
		credentials.Username = strings.Split(credentials.Email, "@")[0]
	}

	if credentials.Username == "" {
		sendJSONError(w, "Username is required", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringMaxLength(credentials.Username, 50, "Username"); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !emailRegex.MatchString(credentials.Email) {
		sendJSONError(w, "Invalid email format", http.StatusBadRequest)
		return
	}
	if !passwordRegex.MatchString(credentials.Password) {
		sendJSONError(w, "Password must be at least 6 characters long", http.StatusBadRequest)
		return
	}

	_, err := model.GetUserByUsername(database.DB, credentials.Username)
	if err == nil {
		sendJSONError(w, "Username already exists", http.StatusConflict)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.L.Error("error checking username uniqueness", "error", err)
		sendJSONError(w, "Failed to process registration", http.StatusInternalServerError)
		return
	}

	_, err = model.GetUserByEmail(database.DB, credentials.Email)
	if err == nil {
		sendJSONError(w, "Email address already in use", http.StatusConflict)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.L.Error("error checking email uniqueness", "error", err)
		sendJSONError(w, "Failed to process registration", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := h.authService.HashPassword(credentials.Password)
	if err != nil {
		logger.L.Error("failed to hash password", "error", err)
		sendJSONError(w, "Failed to process registration", http.StatusInternalServerError)
		return
	}

	user := &model.User{
		Username:     credentials.Username,
		Email:        credentials.Email,
		Password:     hashedPassword,
		AuthProvider: "local",
	}
	if err := user.CreateUser(database.DB); err != nil {
		logger.L.Error("failed to create user", "error", err)
		sendJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	// Every account starts with a tenant so the books are usable right away.
	tenantName := credentials.TenantName
	if tenantName == "" {
		tenantName = credentials.Username
	}
	tenant, err := model.CreateTenant(database.DB, tenantName, user.ID)
	if err != nil {
		logger.L.Error("failed to create initial tenant", "userID", user.ID, "error", err)
		sendJSONError(w, "Failed to create initial organization", http.StatusInternalServerError)
		return
	}

	logger.L.Info("user registered", "userID", user.ID, "tenantID", tenant.ID)
	sendJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully.",
		"tenant":  tenant,
	})
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		MfaToken string `json:"mfa_token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		logger.L.Warn("invalid request body for login", "error", err)
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	credentials.Email = strings.ToLower(validation.SanitizeText(strings.TrimSpace(credentials.Email)))

	user, err := model.GetUserByEmail(database.DB, credentials.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.L.Error("user lookup by email failed for login", "error", err)
		}
		sendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := user.CheckPassword(credentials.Password); err != nil {
		logger.L.Warn("password check failed for login", "userID", user.ID)
		sendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if user.MfaEnabled {
		if credentials.MfaToken == "" {
			sendJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "MFA token required",
				"code":  "MFA_REQUIRED",
			})
			return
		}
		if !h.mfaService.ValidateToken(user.MfaSecret, credentials.MfaToken) {
			logger.L.Warn("MFA validation failed for login", "userID", user.ID)
			sendJSONError(w, "Invalid MFA token", http.StatusUnauthorized)
			return
		}
	}

	updateUserLoginInfo(user.ID, r)
	user.IsAdmin = isAdmin(user.Email)

	accessToken, err := h.authService.GenerateToken(fmt.Sprintf("%d", user.ID))
	if err != nil {
		logger.L.Error("failed to generate access token", "userID", user.ID, "error", err)
		sendJSONError(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		logger.L.Error("failed to generate refresh token", "userID", user.ID, "error", err)
		sendJSONError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	session := &model.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		IsBlocked:    false,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := model.CreateSession(database.DB, session); err != nil {
		logger.L.Error("failed to create session", "userID", user.ID, "error", err)
		sendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	tenants, err := model.ListTenantsForUser(database.DB, user.ID)
	if err != nil {
		logger.L.Error("failed to list tenants on login", "userID", user.ID, "error", err)
		sendJSONError(w, "Failed to load organizations", http.StatusInternalServerError)
		return
	}

	logger.L.Info("user login successful", "userID", user.ID)
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": map[string]interface{}{
			"id":            user.ID,
			"username":      user.Username,
			"email":         user.Email,
			"auth_provider": user.AuthProvider,
			"is_admin":      user.IsAdmin,
			"mfa_enabled":   user.MfaEnabled,
		},
		"tenants": tenants,
	})
}

func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if requestBody.RefreshToken == "" {
		sendJSONError(w, "Refresh token is required", http.StatusBadRequest)
		return
	}

	oldSession, err := model.GetSessionByRefreshToken(database.DB, requestBody.RefreshToken)
	if err != nil {
		logger.L.Warn("refresh token lookup failed or token invalid/expired", "error", err)
		sendJSONError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	// Rotation: the presented refresh token is single use.
	if err := model.DeleteSessionByRefreshToken(database.DB, requestBody.RefreshToken); err != nil {
		logger.L.Error("failed to delete old session during refresh", "userID", oldSession.UserID, "error", err)
	}

	newAccessToken, err := h.authService.GenerateToken(fmt.Sprintf("%d", oldSession.UserID))
	if err != nil {
		logger.L.Error("failed to generate new access token on refresh", "userID", oldSession.UserID, "error", err)
		sendJSONError(w, "Failed to generate new access token", http.StatusInternalServerError)
		return
	}
	newRefreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		logger.L.Error("failed to generate new refresh token on refresh", "userID", oldSession.UserID, "error", err)
		sendJSONError(w, "Failed to generate new refresh token", http.StatusInternalServerError)
		return
	}

	newSession := &model.Session{
		UserID:       oldSession.UserID,
		Token:        newAccessToken,
		RefreshToken: newRefreshToken,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		IsBlocked:    false,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err := model.CreateSession(database.DB, newSession); err != nil {
		logger.L.Error("failed to create new session on refresh", "userID", oldSession.UserID, "error", err)
		sendJSONError(w, "Failed to create new session on refresh", http.StatusInternalServerError)
		return
	}

	logger.L.Info("token refreshed successfully", "userID", oldSession.UserID)
	sendJSON(w, http.StatusOK, map[string]string{
		"access_token":  newAccessToken,
		"refresh_token": newRefreshToken,
	})
}

func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	if tokenString != "" {
		if err := model.DeleteSessionByToken(database.DB, tokenString); err != nil {
			logger.L.Warn("failed to delete session on logout", "error", err)
		}
	} else {
		logger.L.Warn("logout attempt with no token in Authorization header")
	}

	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Tenants
// ---------------------------------------------------------------------------

func (h *UserHandler) ListTenantsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	tenants, err := model.ListTenantsForUser(database.DB, userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("failed to list tenants", "error", err)
		sendJSONError(w, "Failed to list organizations", http.StatusInternalServerError)
		return
	}
	if tenants == nil {
		tenants = []model.Tenant{}
	}
	sendJSON(w, http.StatusOK, tenants)
}

func (h *UserHandler) CreateTenantHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	body.Name = validation.SanitizeText(strings.TrimSpace(body.Name))
	if body.Name == "" {
		sendJSONError(w, "Organization name is required", http.StatusBadRequest)
		return
	}

	tenant, err := model.CreateTenant(database.DB, body.Name, userID)
	if err != nil {
		logger.FromContext(r.Context()).Error("failed to create tenant", "error", err)
		sendJSONError(w, "Failed to create organization", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusCreated, tenant)
}

// ---------------------------------------------------------------------------
// MFA (admin TOTP enrollment)
// ---------------------------------------------------------------------------

func (h *UserHandler) HandleGenerateMfaSecret(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		sendJSONError(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	secret, qrCode, err := h.mfaService.GenerateMFASecret(user.Username)
	if err != nil {
		logger.FromContext(r.Context()).Error("failed to generate MFA secret", "error", err)
		sendJSONError(w, "Failed to generate MFA secret", http.StatusInternalServerError)
		return
	}

	// Stored disabled until the user proves possession with a valid code.
	if err := user.UpdateMFA(database.DB, secret, false); err != nil {
		logger.FromContext(r.Context()).Error("failed to store MFA secret", "error", err)
		sendJSONError(w, "Failed to store MFA secret", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{
		"secret":  secret,
		"qr_code": qrCode,
	})
}

func (h *UserHandler) HandleEnableMfa(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		sendJSONError(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	if user.MfaSecret == "" {
		sendJSONError(w, "MFA secret not generated yet", http.StatusBadRequest)
		return
	}
	if !h.mfaService.ValidateToken(user.MfaSecret, body.Token) {
		sendJSONError(w, "Invalid MFA token", http.StatusBadRequest)
		return
	}
	if err := user.UpdateMFA(database.DB, user.MfaSecret, true); err != nil {
		sendJSONError(w, "Failed to enable MFA", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("MFA enabled", "userID", userID)
	sendJSON(w, http.StatusOK, map[string]string{"message": "MFA enabled"})
}

// AdminStats is the payload for the admin usage overview.
type AdminStats struct {
	TotalUsers       int            `json:"total_users"`
	TotalTenants     int            `json:"total_tenants"`
	ActiveSessions   int            `json:"active_sessions"`
	LoginsLast7Days  int            `json:"logins_last_7_days"`
	UsersByProvider  map[string]int `json:"users_by_provider"`
	TransactionRows  map[string]int `json:"transaction_rows"`
	CompaniesTracked int            `json:"companies_tracked"`
}

func (h *UserHandler) HandleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats := AdminStats{
		UsersByProvider: map[string]int{},
		TransactionRows: map[string]int{},
	}

	database.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&stats.TotalUsers)
	database.DB.QueryRow("SELECT COUNT(*) FROM tenants").Scan(&stats.TotalTenants)
	database.DB.QueryRow("SELECT COUNT(*) FROM sessions WHERE expires_at > CURRENT_TIMESTAMP").Scan(&stats.ActiveSessions)
	database.DB.QueryRow("SELECT COUNT(*) FROM login_history WHERE created_at >= DATETIME('now', '-7 days')").Scan(&stats.LoginsLast7Days)
	database.DB.QueryRow("SELECT COUNT(*) FROM companies").Scan(&stats.CompaniesTracked)

	rows, err := database.DB.Query("SELECT auth_provider, COUNT(*) FROM users GROUP BY auth_provider")
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var provider string
			var count int
			if err := rows.Scan(&provider, &count); err == nil {
				stats.UsersByProvider[provider] = count
			}
		}
	}

	for _, table := range []string{
		models.TableSales, models.TablePurchases, models.TableRecoveries,
		models.TableCostEntries, models.TablePayments,
		models.TableReconciliations, models.TableStockSnapshots,
	} {
		var count int
		database.DB.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		stats.TransactionRows[table] = count
	}

	sendJSON(w, http.StatusOK, stats)
}
