package service

import (
	"strings"

	"github.com/yenflowers/api/internal/constants"
)

var allowedOrderTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusDelivered: true,
	},
}

var allowedPaymentTransitions = map[string]map[string]bool{
	constants.PaymentStatusPending: {
		constants.PaymentStatusPaid:   true,
		constants.PaymentStatusFailed: true,
	},
	constants.PaymentStatusPaid: {
		constants.PaymentStatusRefunded: true,
	},
}

func isOrderTransitionAllowed(current, target string) bool {
	return isTransitionAllowed(allowedOrderTransitions, current, target)
}

func isPaymentTransitionAllowed(current, target string) bool {
	return isTransitionAllowed(allowedPaymentTransitions, current, target)
}

func isTransitionAllowed(transitions map[string]map[string]bool, current, target string) bool {
	current = strings.ToLower(strings.TrimSpace(current))
	target = strings.ToLower(strings.TrimSpace(target))
	if current == target {
		return true
	}
	nexts, ok := transitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}
