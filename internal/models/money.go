package models

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMinorAmountInvalid 金额无法换算为最小货币单位
var ErrMinorAmountInvalid = errors.New("minor amount invalid")

var zeroDecimalCurrencies = map[string]struct{}{
	"JPY": {},
	"KRW": {},
	"VND": {},
	"CLP": {},
}

// CurrencyScale 返回币种的小数位数
func CurrencyScale(currency string) int32 {
	upper := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := zeroDecimalCurrencies[upper]; ok {
		return 0
	}
	return 2
}

// NormalizeCurrency 统一币种格式（大写、去空白）
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// MinorToDecimal 最小货币单位转十进制金额
func MinorToDecimal(minor int64, currency string) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-CurrencyScale(currency))
}

// FormatMinor 格式化最小货币单位金额，例如 10050 USD -> "100.50"
func FormatMinor(minor int64, currency string) string {
	scale := CurrencyScale(currency)
	return decimal.NewFromInt(minor).Shift(-scale).StringFixed(scale)
}

// ParseMinor 解析十进制金额字符串为最小货币单位，精度超出币种时报错
func ParseMinor(amount string, currency string) (int64, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, ErrMinorAmountInvalid
	}
	minor := parsed.Shift(CurrencyScale(currency))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, ErrMinorAmountInvalid
	}
	return minor.IntPart(), nil
}

// MinorAmount 最小货币单位金额，JSON 输出为 {"minor": 10050, "display": "100.50"}
type MinorAmount struct {
	Minor    int64
	Currency string
}

// MarshalJSON 同时输出整数与展示字符串
func (m MinorAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"minor":    m.Minor,
		"display":  FormatMinor(m.Minor, m.Currency),
		"currency": NormalizeCurrency(m.Currency),
	})
}
