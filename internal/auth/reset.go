package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const resetTTL = 30 * time.Minute

// ResetStore keeps single-use password reset tokens in Redis with a TTL.
// Consuming a token deletes it, so a reset link works exactly once.
type ResetStore struct {
	rdb *redis.Client
}

func NewResetStore(rdb *redis.Client) *ResetStore {
	return &ResetStore{rdb: rdb}
}

func resetKey(token string) string {
	return "pwreset:" + token
}

// Issue creates a token bound to the user id.
func (r *ResetStore) Issue(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)
	if err := r.rdb.Set(ctx, resetKey(token), userID, resetTTL).Err(); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// Consume resolves a token to its user id and invalidates it.
func (r *ResetStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := r.rdb.GetDel(ctx, resetKey(token)).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("reset token unknown or expired")
	}
	if err != nil {
		return "", fmt.Errorf("read reset token: %w", err)
	}
	return userID, nil
}

type RequestResetRequest struct {
	Email string `json:"email"`
}

// POST /auth/password/request
// Always responds with the same message to avoid user enumeration.
func (h *Handler) RequestPasswordReset(c echo.Context) error {
	const generic = "If the email exists, a reset link has been sent."

	req := new(RequestResetRequest)
	if err := c.Bind(req); err != nil || req.Email == "" {
		return c.JSON(http.StatusOK, echo.Map{"message": generic})
	}

	ctx := c.Request().Context()
	var userID string
	err := h.Pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, req.Email).Scan(&userID)
	if err != nil || userID == "" {
		return c.JSON(http.StatusOK, echo.Map{"message": generic})
	}

	token, err := h.Resets.Issue(ctx, userID)
	if err != nil {
		h.Log.Error("reset token issue failed", zap.Error(err))
		return c.JSON(http.StatusOK, echo.Map{"message": generic})
	}
	if h.Mail != nil {
		resetURL := fmt.Sprintf("%s/reset-password?token=%s", h.AppURL, token)
		if err := h.Mail.PasswordReset(req.Email, resetURL); err != nil {
			h.Log.Error("reset mail enqueue failed", zap.Error(err))
		}
	}
	h.Log.Info("password reset issued", zap.String("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{"message": generic})
}

type ConfirmResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// POST /auth/password/reset
func (h *Handler) ConfirmPasswordReset(c echo.Context) error {
	req := new(ConfirmResetRequest)
	if err := c.Bind(req); err != nil || req.Token == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and a 6+ character password are required"})
	}

	ctx := c.Request().Context()
	userID, err := h.Resets.Consume(ctx, req.Token)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	_, err = h.Pool.Exec(ctx, `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, string(hashed), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated. You can log in now."})
}
