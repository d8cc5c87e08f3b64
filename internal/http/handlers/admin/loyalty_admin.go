package admin

import (
	"strings"
	"time"

	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ExpirePointsRequest 手动触发积分过期清理
type ExpirePointsRequest struct {
	BatchSize int  `json:"batch_size" validate:"min=0,max=5000"`
	Async     bool `json:"async"`
}

// UserLoyaltyDetail 管理端用户积分详情
type UserLoyaltyDetail struct {
	Summary     *service.LoyaltySummary  `json:"summary"`
	TierHistory []models.LoyaltyUserTier `json:"tier_history"`
}

// ListTiers 等级列表
func (h *Handler) ListTiers(c *gin.Context) {
	tiers, err := h.TierService.ListTiers()
	if err != nil {
		respondServiceError(c, err, "tier query failed")
		return
	}
	response.Success(c, tiers)
}

// CreateTier 创建等级
func (h *Handler) CreateTier(c *gin.Context) {
	var req service.TierInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	tier, err := h.TierService.CreateTier(req)
	if err != nil {
		respondServiceError(c, err, "tier create failed")
		return
	}
	response.Success(c, tier)
}

// UpdateTier 更新等级
func (h *Handler) UpdateTier(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req service.TierInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	tier, err := h.TierService.UpdateTier(id, req)
	if err != nil {
		respondServiceError(c, err, "tier update failed")
		return
	}
	response.Success(c, tier)
}

// ListRewards 奖励列表
func (h *Handler) ListRewards(c *gin.Context) {
	page, limit := handlershared.ParsePagination(c)
	rewards, total, err := h.RewardService.ListRewards(repository.RewardListFilter{
		Page:     page,
		PageSize: limit,
		Type:     strings.ToLower(strings.TrimSpace(c.Query("type"))),
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
		IsActive: parseQueryBool(c, "is_active"),
	})
	if err != nil {
		respondServiceError(c, err, "reward query failed")
		return
	}
	response.Success(c, service.NewPage(rewards, total, page, limit))
}

// CreateReward 创建奖励
func (h *Handler) CreateReward(c *gin.Context) {
	var req service.RewardInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	reward, err := h.RewardService.CreateReward(req)
	if err != nil {
		respondServiceError(c, err, "reward create failed")
		return
	}
	response.Success(c, reward)
}

// UpdateReward 更新奖励
func (h *Handler) UpdateReward(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req service.RewardInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	reward, err := h.RewardService.UpdateReward(id, req)
	if err != nil {
		respondServiceError(c, err, "reward update failed")
		return
	}
	response.Success(c, reward)
}

// AdjustPoints 管理员调整用户积分
func (h *Handler) AdjustPoints(c *gin.Context) {
	adminID, ok := handlershared.GetAdminID(c)
	if !ok {
		return
	}
	var req service.AdjustInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	txn, err := h.LoyaltyService.AdminAdjust(req)
	if err != nil {
		respondServiceError(c, err, "points adjust failed")
		return
	}
	handlershared.RequestLog(c).Infow("admin_points_adjusted",
		"admin_id", adminID,
		"user_id", req.UserID,
		"points", req.Points,
	)
	response.Success(c, txn)
}

// ExpirePoints 立即执行积分过期清理，async=true 时投递到队列
func (h *Handler) ExpirePoints(c *gin.Context) {
	var req ExpirePointsRequest
	if c.Request.ContentLength > 0 && !handlershared.BindJSON(c, &req) {
		return
	}
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = h.Config.Loyalty.ExpireSweepBatchSize
	}

	if req.Async && h.QueueClient.Enabled() {
		err := h.QueueClient.EnqueueLoyaltyExpireSweep(queue.LoyaltyExpireSweepPayload{
			BatchSize:   batchSize,
			RequestedBy: "admin:" + handlershared.GetAdminRole(c),
		})
		if err != nil {
			respondError(c, response.CodeInternal, "expire sweep enqueue failed", err)
			return
		}
		response.SuccessWithMsg(c, "expire sweep queued", gin.H{"queued": true})
		return
	}

	ctx := logger.WithContext(c.Request.Context(), "request_id", c.GetString(response.RequestIDKey))
	result, err := h.LoyaltyService.ExpireDue(ctx, time.Now(), batchSize)
	if err != nil {
		respondServiceError(c, err, "expire sweep failed")
		return
	}
	response.Success(c, result)
}

// GetUserLoyalty 用户积分概览与等级历史
func (h *Handler) GetUserLoyalty(c *gin.Context) {
	userID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	summary, err := h.LoyaltyService.Summary(userID)
	if err != nil {
		respondServiceError(c, err, "loyalty summary failed")
		return
	}
	history, err := h.TierService.UserTierHistory(userID)
	if err != nil {
		respondServiceError(c, err, "tier history query failed")
		return
	}
	if history == nil {
		history = []models.LoyaltyUserTier{}
	}
	response.Success(c, UserLoyaltyDetail{Summary: summary, TierHistory: history})
}
