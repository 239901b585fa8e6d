package pricing

import (
	"fmt"

	"github.com/erp/pricing/internal/domain/shared"
	"github.com/erp/pricing/internal/domain/shared/valueobject"
)

// Error codes raised by the pricing domain
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidState           = "INVALID_STATE"
	CodeStackingViolation      = "STACKING_VIOLATION"
	CodeMarginViolation        = "MARGIN_VIOLATION"
	CodeUsageLimitReached      = "USAGE_LIMIT_REACHED"
	CodePromotionInvalid       = "PROMOTION_INVALID"
	CodePromotionNotApplicable = "PROMOTION_NOT_APPLICABLE"
	CodeCurrencyMismatch       = "CURRENCY_MISMATCH"
)

// Sentinels for errors.Is matching; DomainError compares by code.
var (
	ErrValidation        = shared.NewDomainError(CodeValidation, "Validation failed")
	ErrStackingViolation = shared.NewDomainError(CodeStackingViolation, "Promotion stacking rule violated")
	ErrMarginViolation   = shared.NewDomainError(CodeMarginViolation, "Margin floor violated")
	ErrUsageLimitReached = shared.NewDomainError(CodeUsageLimitReached, "Campaign has reached its usage limit")
)

func validationError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

func notFoundError(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeNotFound, fmt.Sprintf(format, args...))
}

func currencyMismatchError(a, b valueobject.Currency) *shared.DomainError {
	return shared.NewDomainError(CodeCurrencyMismatch,
		fmt.Sprintf("Currency mismatch: %s vs %s", a, b))
}
