package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// 自定义校验 tag
const (
	clockTag    = "clock"    // HH:MM，24 小时制
	isoDateTag  = "isodate"  // YYYY-MM-DD
	notBlankTag = "notblank" // 去除空白后非空
)

var clockRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var (
	once       sync.Once
	translator ut.Translator
)

// Setup 在 gin 的默认校验器上注册自定义 tag 与中文翻译，可重复调用
func Setup() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		locale := zh.New()
		uni := ut.New(locale, locale)
		translator, _ = uni.GetTranslator("zh")
		_ = zh_translations.RegisterDefaultTranslations(v, translator)

		// 错误信息中使用 json / form 字段名
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = v.RegisterValidation(clockTag, func(fl validator.FieldLevel) bool {
			return IsClock(fl.Field().String())
		})
		_ = v.RegisterValidation(isoDateTag, func(fl validator.FieldLevel) bool {
			return IsDate(fl.Field().String())
		})
		_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})

		registerText(v, clockTag, "{0}必须是 HH:MM 格式的时间")
		registerText(v, isoDateTag, "{0}必须是 YYYY-MM-DD 格式的日期")
		registerText(v, notBlankTag, "{0}不能为空")
	})
}

func registerText(v *validator.Validate, tag, text string) {
	_ = v.RegisterTranslation(tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field())
			return msg
		},
	)
}

// IsClock 是否为合法的 HH:MM
func IsClock(s string) bool {
	return clockRegex.MatchString(s)
}

// IsDate 是否为合法的 YYYY-MM-DD
func IsDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// Translate 把校验错误转换为 字段 -> 中文提示
// 非校验错误返回 nil
func Translate(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if translator != nil {
			out[fe.Field()] = fe.Translate(translator)
		} else {
			out[fe.Field()] = fe.Error()
		}
	}
	return out
}
