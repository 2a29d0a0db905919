package handlers

import (
	"crypto/rand"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matria-app/matria/internal/auth"
	"github.com/matria-app/matria/internal/common"
	"github.com/matria-app/matria/internal/email"
	"github.com/matria-app/matria/internal/httpapi/middleware"
	"github.com/matria-app/matria/internal/remote"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenTTL     = 24 * time.Hour
	loginCodeTTL = 10 * time.Minute
)

func userIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// generate a 6 digit one-time login code
func randomDigits6() (string, error) {
	const digits = "0123456789"
	out := make([]byte, 6)
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		out[i] = digits[n.Int64()]
	}
	return string(out), nil
}

// recordLogin opens a local session record for the user. Persistence
// failures are logged, never surfaced: login must not break on a full store.
func (h *Handler) recordLogin(c *gin.Context, userID string) string {
	rec, err := h.Sessions.Add(userID, c.Request.UserAgent(), time.Now())
	if err != nil {
		log.Printf("[Auth] record login failed user=%s err=%v", userID, err)
		return ""
	}
	return rec.ID
}

type signupReq struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	id, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20004, "failed to generate id")
		return
	}

	profile := remote.Profile{
		ID:           id,
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
	}
	if err := h.DB.Create(&profile).Error; err != nil {
		common.Fail(c, http.StatusBadRequest, 10003, "failed to create account (maybe email already exists)")
		return
	}

	token, err := auth.SignJWT(profile.ID, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	// send welcome email
	go func(to string) {
		subject := "Bienvenida a Matria — tu cuenta está lista"
		body := "Hola,\n\n" +
			"Tu cuenta en Matria ha sido creada. Ya puedes conversar con el " +
			"asistente de apoyo durante tu embarazo.\n\n" +
			"Si no solicitaste esta cuenta, contacta con nuestro soporte.\n\n" +
			"Un abrazo,\n" +
			"Matria\n"
		_ = email.SendText(h.SMTPSetting, to, subject, body)
	}(profile.Email)

	common.OK(c, gin.H{
		"id":         profile.ID,
		"email":      profile.Email,
		"token":      token,
		"session_id": h.recordLogin(c, profile.ID),
	})
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var profile remote.Profile
	if err := h.DB.Where("email = ?", req.Email).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusUnauthorized, 40103, "invalid email or password")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	if !auth.CheckPassword(profile.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "invalid email or password")
		return
	}

	token, err := auth.SignJWT(profile.ID, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"id":         profile.ID,
		"email":      profile.Email,
		"token":      token,
		"session_id": h.recordLogin(c, profile.ID),
	})
}

type sendLinkReq struct {
	Email string `json:"email" binding:"required"`
}

// SendLoginLink starts the passwordless flow: a one-time code is stored in
// redis and mailed to the address.
func (h *Handler) SendLoginLink(c *gin.Context) {
	var req sendLinkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	code, err := randomDigits6()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20004, "failed to generate code")
		return
	}
	if err := h.Redis.SetLoginCode(c.Request.Context(), req.Email, code, loginCodeTTL); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "redis error")
		return
	}

	subject := "Tu código de acceso a Matria"
	body := "Hola,\n\n" +
		"Tu código de acceso es: " + code + "\n\n" +
		"Caduca en 10 minutos. Si no lo solicitaste, ignora este mensaje.\n\n" +
		"Matria\n"
	if err := email.SendText(h.SMTPSetting, req.Email, subject, body); err != nil {
		log.Printf("[Auth] send login link email=%s err=%v", req.Email, err)
		common.Fail(c, http.StatusInternalServerError, 20007, "failed to send email")
		return
	}

	common.OK(c, gin.H{"sent": true})
}

type verifyLinkReq struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// VerifyLoginLink completes the passwordless flow. A profile is created on
// first login with this address.
func (h *Handler) VerifyLoginLink(c *gin.Context) {
	var req verifyLinkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	code, err := h.Redis.GetLoginCode(c.Request.Context(), req.Email)
	if err != nil {
		if err == redis.Nil {
			common.Fail(c, http.StatusBadRequest, 10020, "code expired or not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "redis error")
		return
	}
	if code != req.Code {
		common.Fail(c, http.StatusBadRequest, 10021, "invalid code")
		return
	}
	_ = h.Redis.DeleteLoginCode(c.Request.Context(), req.Email)

	var profile remote.Profile
	err = h.DB.Where("email = ?", req.Email).First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		id, idErr := common.NewULID()
		if idErr != nil {
			common.Fail(c, http.StatusInternalServerError, 20004, "failed to generate id")
			return
		}
		profile = remote.Profile{ID: id, Email: req.Email}
		if err := h.DB.Create(&profile).Error; err != nil {
			common.Fail(c, http.StatusInternalServerError, 20001, "db error")
			return
		}
	} else if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	token, err := auth.SignJWT(profile.ID, h.Cfg.JWTSecret, tokenTTL)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"id":         profile.ID,
		"email":      profile.Email,
		"token":      token,
		"session_id": h.recordLogin(c, profile.ID),
	})
}

type logoutReq struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (h *Handler) Logout(c *gin.Context) {
	if _, ok := userIDFromContext(c); !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req logoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	if err := h.Sessions.RecordLogout(req.SessionID, time.Now()); err != nil {
		common.Fail(c, http.StatusNotFound, 40403, "session not found")
		return
	}
	common.OK(c, gin.H{"logged_out": true})
}

func (h *Handler) Me(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var profile remote.Profile
	if err := h.DB.First(&profile, "id = ?", uid).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40401, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}

	common.OK(c, gin.H{
		"id":           profile.ID,
		"email":        profile.Email,
		"display_name": profile.DisplayName,
		"created_at":   profile.CreatedAt,
	})
}
