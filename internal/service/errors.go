package service

import (
	"errors"
	"fmt"
)

// 结算错误分类
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidCommission      = errors.New("invalid commission percent")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrReasonRequired         = errors.New("reason required")
	ErrInvalidDecision        = errors.New("invalid review decision")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrAuthorization          = errors.New("admin capability required")
	ErrPersistence            = errors.New("persistence failure")
)

// 具体的未找到错误，均可用 errors.Is(err, ErrNotFound) 判断
var (
	ErrResourceNotFound     = fmt.Errorf("resource %w", ErrNotFound)
	ErrBuyerNotFound        = fmt.Errorf("buyer %w", ErrNotFound)
	ErrCreatorNotFound      = fmt.Errorf("creator %w", ErrNotFound)
	ErrPurchaseNotFound     = fmt.Errorf("purchase %w", ErrNotFound)
	ErrPayoutNotFound       = fmt.Errorf("payout request %w", ErrNotFound)
	ErrPaymentOrderNotFound = fmt.Errorf("payment order %w", ErrNotFound)
)

// 支付与鉴权错误
var (
	ErrPaymentProviderNotSupported   = errors.New("payment provider not supported")
	ErrPaymentGatewayRequestFailed   = errors.New("payment gateway request failed")
	ErrPaymentGatewayResponseInvalid = errors.New("payment gateway response invalid")
	ErrPaymentNotCaptured            = errors.New("payment not captured")
	ErrPaymentAmountMismatch         = errors.New("payment amount mismatch")
	ErrPaymentSignatureInvalid       = errors.New("payment signature invalid")
	ErrResourceNotPurchasable        = errors.New("resource not purchasable")
	ErrInvalidCredentials            = errors.New("invalid credentials")
	ErrUserDisabled                  = errors.New("user disabled")
)

// 分类维护错误
var (
	ErrInvalidCategory = errors.New("category slug and name required")
	ErrSlugExists      = errors.New("slug already exists")
)

var domainErrors = []error{
	ErrNotFound,
	ErrInvalidAmount,
	ErrInvalidCommission,
	ErrInvalidStateTransition,
	ErrReasonRequired,
	ErrInvalidDecision,
	ErrInsufficientBalance,
	ErrAuthorization,
	ErrPersistence,
	ErrPaymentProviderNotSupported,
	ErrPaymentGatewayRequestFailed,
	ErrPaymentGatewayResponseInvalid,
	ErrPaymentNotCaptured,
	ErrPaymentAmountMismatch,
	ErrPaymentSignatureInvalid,
	ErrResourceNotPurchasable,
	ErrInvalidCredentials,
	ErrUserDisabled,
	ErrInvalidCategory,
	ErrSlugExists,
}

// wrapPersistence 将存储层错误归类为 ErrPersistence，业务错误原样返回
func wrapPersistence(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
