package shared

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 在 gin 的校验器上注册自定义 tag，可重复调用
func RegisterValidators() {
	registerOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("currency", validateCurrency)
	})
}

// validateCurrency 三位字母币种代码，大小写不敏感
func validateCurrency(fl validator.FieldLevel) bool {
	return IsCurrencyCode(fl.Field().String())
}

// IsCurrencyCode 判断是否为三位字母币种代码
func IsCurrencyCode(value string) bool {
	value = strings.TrimSpace(value)
	if len(value) != 3 {
		return false
	}
	for _, r := range value {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
