package public

import (
	"strings"

	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetLoyaltySummary 积分余额与等级概览
func (h *Handler) GetLoyaltySummary(c *gin.Context) {
	uid, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	summary, err := h.LoyaltyService.Summary(uid)
	if err != nil {
		respondLoyaltyError(c, err, "loyalty summary failed")
		return
	}
	response.Success(c, summary)
}

// ListLoyaltyTransactions 积分流水
func (h *Handler) ListLoyaltyTransactions(c *gin.Context) {
	uid, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	page, limit := handlershared.ParsePagination(c)
	txns, total, err := h.LoyaltyService.ListTransactions(repository.PointsTransactionListFilter{
		Page:            page,
		PageSize:        limit,
		UserID:          uid,
		TransactionType: strings.ToLower(strings.TrimSpace(c.Query("type"))),
		Source:          strings.ToLower(strings.TrimSpace(c.Query("source"))),
	})
	if err != nil {
		respondLoyaltyError(c, err, "loyalty transactions query failed")
		return
	}
	response.Success(c, service.NewPage(txns, total, page, limit))
}

// ListAvailableRewards 当前用户可兑换奖励
func (h *Handler) ListAvailableRewards(c *gin.Context) {
	uid, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	rewards, err := h.RewardService.ListAvailable(uid)
	if err != nil {
		respondLoyaltyError(c, err, "loyalty rewards query failed")
		return
	}
	response.Success(c, rewards)
}

// RedeemReward 兑换奖励
func (h *Handler) RedeemReward(c *gin.Context) {
	uid, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	rewardID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	txn, err := h.RewardService.RedeemReward(uid, rewardID)
	if err != nil {
		respondLoyaltyError(c, err, "reward redeem failed")
		return
	}
	response.Success(c, txn)
}
