package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/glitchbyte/streambot/internal/auth"
	"github.com/glitchbyte/streambot/internal/bot"
	"github.com/glitchbyte/streambot/internal/common"
	"github.com/glitchbyte/streambot/internal/twitch"
)

func (h *Handler) Ping(c *gin.Context) {
	common.Ok(c, gin.H{"pong": true})
}

type loginReq struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if h.Cfg.AdminPasswordHash == "" || !auth.CheckPassword(h.Cfg.AdminPasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "wrong password")
		return
	}
	token, err := auth.SignJWT("admin", h.Cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to sign token")
		return
	}
	common.Ok(c, gin.H{"token": token})
}

func (h *Handler) ListTurns(c *gin.Context) {
	platformID := c.Param("platform_id")
	user, err := h.Repo.GetUserByPlatformID(c.Request.Context(), platformID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40004, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load user")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var beforeSeq uint64
	if v := c.Query("before_seq"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			beforeSeq = n
		}
	}

	turns, err := h.Repo.ListTurns(c.Request.Context(), user.ID, limit, beforeSeq)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to list turns")
		return
	}

	var nextBeforeSeq uint64
	if len(turns) > 0 {
		nextBeforeSeq = turns[len(turns)-1].Seq
	}
	common.Ok(c, gin.H{
		"turns":           turns,
		"next_before_seq": nextBeforeSeq,
	})
}

func (h *Handler) ClearTurns(c *gin.Context) {
	platformID := c.Param("platform_id")
	user, err := h.Repo.GetUserByPlatformID(c.Request.Context(), platformID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40004, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to load user")
		return
	}

	count, err := h.Ledger.Clear(c.Request.Context(), user.ID)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to clear turns")
		return
	}
	common.Ok(c, gin.H{"deleted": count})
}

func (h *Handler) GetRoutingState(c *gin.Context) {
	st := h.Registry.StateFor(c.Request.Context(), c.Param("platform_id"))
	common.Ok(c, st)
}

type routingReq struct {
	Role   *string `json:"role"`
	Engine *string `json:"engine"`
	Limit  *int    `json:"limit"`
}

func (h *Handler) SetRoutingState(c *gin.Context) {
	var req routingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	ctx := c.Request.Context()
	platformID := c.Param("platform_id")

	if req.Role != nil {
		if err := h.Registry.SetRole(ctx, platformID, *req.Role); err != nil {
			common.Fail(c, http.StatusBadRequest, 10030, err.Error())
			return
		}
	}
	if req.Engine != nil {
		if err := h.Registry.SetEngine(ctx, platformID, *req.Engine); err != nil {
			common.Fail(c, http.StatusBadRequest, 10031, err.Error())
			return
		}
	}
	if req.Limit != nil {
		if err := h.Registry.SetLimit(ctx, platformID, *req.Limit); err != nil {
			common.Fail(c, http.StatusBadRequest, 10032, err.Error())
			return
		}
	}
	common.Ok(c, h.Registry.StateFor(ctx, platformID))
}

type injectReq struct {
	UserID          string `json:"user_id" binding:"required"`
	Handle          string `json:"handle" binding:"required"`
	Text            string `json:"text" binding:"required"`
	Channel         string `json:"channel"`
	MessageID       string `json:"message_id"`
	ParentMessageID string `json:"parent_message_id"`
}

// InjectMessage feeds a synthetic chat event through the pipeline; useful
// for driving the bot without a live chat connection.
func (h *Handler) InjectMessage(c *gin.Context) {
	var req injectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.MessageID == "" {
		req.MessageID = "inject-" + ulid.Make().String()
	}
	if req.Channel == "" {
		req.Channel = h.Cfg.BotChannel
	}

	ev := twitch.Event{
		UserID:    req.UserID,
		Handle:    req.Handle,
		MessageID: req.MessageID,
		Channel:   req.Channel,
		Text:      req.Text,
	}
	if req.ParentMessageID != "" {
		ev.IsReply = true
		ev.ParentMessageID = req.ParentMessageID
	}

	reply, err := h.Pipeline.Handle(c.Request.Context(), ev)
	if err != nil {
		if errors.Is(err, bot.ErrMissingIdentity) {
			common.Fail(c, http.StatusBadRequest, 10040, "user_id and handle are required")
			return
		}
		h.Logger.Error("inject failed", "error", err)
		common.Fail(c, http.StatusBadGateway, 50210, "message processing failed")
		return
	}
	common.Ok(c, gin.H{
		"reply":      reply,
		"suppressed": reply == "",
	})
}
