package service

import (
	"strings"
	"time"

	"github.com/bazaar-next/internal/constants"
)

// canonicalProgression 订单正向状态推进顺序
var canonicalProgression = []string{
	constants.OrderStatusPending,
	constants.OrderStatusConfirmed,
	constants.OrderStatusProcessing,
	constants.OrderStatusShipped,
	constants.OrderStatusDelivered,
}

// allowedTransitions 订单状态流转表，取消与退款为终态
var allowedTransitions = buildAllowedTransitions()

func buildAllowedTransitions() map[string]map[string]bool {
	table := make(map[string]map[string]bool, len(canonicalProgression)+2)
	for i, from := range canonicalProgression {
		next := make(map[string]bool)
		for _, to := range canonicalProgression[i+1:] {
			next[to] = true
		}
		table[from] = next
	}
	for _, from := range []string{
		constants.OrderStatusPending,
		constants.OrderStatusConfirmed,
		constants.OrderStatusProcessing,
	} {
		table[from][constants.OrderStatusCancelled] = true
	}
	for _, from := range []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	} {
		table[from][constants.OrderStatusRefunded] = true
	}
	table[constants.OrderStatusCancelled] = map[string]bool{}
	table[constants.OrderStatusRefunded] = map[string]bool{}
	return table
}

// statusRank 返回状态在正向推进中的位置，非正向状态返回 -1
func statusRank(status string) int {
	for i, s := range canonicalProgression {
		if s == status {
			return i
		}
	}
	return -1
}

// isKnownOrderStatus 判断是否为合法订单状态
func isKnownOrderStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// isTransitionAllowed 判断状态流转是否合法
func isTransitionAllowed(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// missingStatuses 计算从已记录的最高正向状态推进到目标状态需要写入的状态序列（含目标本身）。
// 取消与退款不参与补齐，直接返回目标；目标已被记录时返回空。
func missingStatuses(lastRecorded, target string) []string {
	targetRank := statusRank(target)
	if targetRank < 0 {
		return []string{target}
	}
	lastRank := statusRank(lastRecorded)
	if targetRank <= lastRank {
		return nil
	}
	result := make([]string, 0, targetRank-lastRank)
	result = append(result, canonicalProgression[lastRank+1:targetRank+1]...)
	return result
}

// highestRecordedStatus 返回历史中排位最高的正向状态
func highestRecordedStatus(history []string) string {
	highest := ""
	highestRank := -1
	for _, status := range history {
		if rank := statusRank(status); rank > highestRank {
			highest = status
			highestRank = rank
		}
	}
	return highest
}

// applyStatusSideEffects 写入状态对应的时间戳字段
func applyStatusSideEffects(updates map[string]interface{}, status string, now time.Time) {
	switch status {
	case constants.OrderStatusConfirmed:
		updates["confirmed_at"] = now
		updates["cancelled_at"] = nil
	case constants.OrderStatusShipped:
		updates["shipped_at"] = now
		updates["cancelled_at"] = nil
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = now
		updates["cancelled_at"] = nil
	case constants.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}
}

func normalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
