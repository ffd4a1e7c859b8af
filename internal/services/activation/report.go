package activation

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/magabrotheeeer/license-activator/internal/models"
)

// Коды ответа. Отрицательный код означает внутреннюю ошибку.
const (
	CodeOK       = 0
	CodeInternal = -1
)

// maxReasonLen ограничивает текст причины, который попадает в ответ.
const maxReasonLen = 200

type kindInfo struct {
	code    int
	status  int
	message string
}

var kinds = map[Kind]kindInfo{
	KindUnauthenticated:     {1, http.StatusUnauthorized, "authentication required"},
	KindUserNotFound:        {2, http.StatusNotFound, "user not found"},
	KindGatewayUnavailable:  {3, http.StatusBadGateway, "license provider is unavailable, try again later"},
	KindInvalidLicense:      {4, http.StatusBadRequest, "license key is invalid"},
	KindUnknownPlan:         {5, http.StatusBadRequest, "license plan is not recognized"},
	KindEntitlementRejected: {6, http.StatusBadRequest, "license cannot be applied"},
	KindActivationFailed:    {7, http.StatusBadRequest, "license activation failed"},
	KindDuplicateActivation: {8, http.StatusConflict, "license key is already activated"},
	KindPersistenceFailed:   {CodeInternal, http.StatusInternalServerError, "failed to save activation"},
	KindInternal:            {CodeInternal, http.StatusInternalServerError, "internal error"},
}

// Outcome - итог сверки для клиента: либо успех с типом, либо ошибка с видом.
type Outcome struct {
	OK      bool
	Kind    Kind
	Code    int
	Message string
	Type    string
}

// HTTPStatus возвращает HTTP-статус, соответствующий итогу.
func (o Outcome) HTTPStatus() int {
	if o.OK {
		return http.StatusOK
	}
	if info, ok := kinds[o.Kind]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Report приводит результат сверки к однозначному итогу.
// Ошибки, не являющиеся *Error, считаются внутренними.
func Report(res *Result, err error) Outcome {
	if err == nil {
		if res == nil {
			return failure(KindInternal, "")
		}
		return Outcome{OK: true, Code: CodeOK, Type: res.Type}
	}

	var aErr *Error
	if !errors.As(err, &aErr) {
		return failure(KindInternal, "")
	}
	if _, ok := kinds[aErr.Kind]; !ok {
		return failure(KindInternal, "")
	}
	switch aErr.Kind {
	case KindInvalidLicense, KindEntitlementRejected, KindActivationFailed:
		return failure(aErr.Kind, aErr.Reason)
	default:
		return failure(aErr.Kind, "")
	}
}

func failure(kind Kind, reason string) Outcome {
	info := kinds[kind]
	msg := info.message
	if reason = strings.TrimSpace(reason); reason != "" {
		msg = msg + ": " + truncate(reason, maxReasonLen)
	}
	return Outcome{Kind: kind, Code: info.code, Message: msg}
}

// truncate обрезает s до n байт, не разрывая многобайтовый символ.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ResultType возвращает тип результата для категории плана.
func ResultType(c models.PlanCategory) string {
	switch c {
	case models.CategorySubscription:
		return "license"
	case models.CategoryTokens:
		return "tokens"
	}
	return ""
}
