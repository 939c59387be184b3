// Package validation 为gin的请求绑定注册自定义规则，并把校验错误翻译成可读的消息。
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerOnce sync.Once

// Register 向gin的默认校验器注册自定义规则，可安全地重复调用
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("decimal", isDecimal)
		_ = v.RegisterValidation("notblank", isNotBlank)
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// isDecimal 接受字符串形式的十进制数，例如 "100"、"1.50"
func isDecimal(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Message 返回第一个校验错误的可读描述
func Message(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fieldMessage(verrs[0])
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s must be of type %s", Label(typeErr.Field), typeErr.Type.Kind())
	}

	var timeErr *TimeFormatError
	if errors.As(err, &timeErr) {
		return timeErr.Error()
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "Request body must be valid JSON"
	}
	return "Invalid request body"
}

func fieldMessage(fe validator.FieldError) string {
	label := Label(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "decimal":
		return label + " must be a decimal number"
	case "min", "gte":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must have at least %s characters", label, fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("%s must have at least %s items", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "url":
		return label + " must be a valid URL"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// Label 把camelCase的JSON字段名转换为句首大写的词组，例如 discordUsername -> "Discord username"
func Label(field string) string {
	if field == "" {
		return "Field"
	}
	if i := strings.LastIndex(field, "."); i >= 0 {
		field = field[i+1:]
	}
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
