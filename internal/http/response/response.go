// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков:
// {"error":0,"data":...} при успехе и {"error":code,"kind":...,"msg":...} при ошибке.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Коды и виды ошибок уровня HTTP, не связанные со сверкой.
const (
	CodeOK              = 0
	CodeInternal        = -1
	CodeInvalidRequest  = 9
	CodeTooManyRequests = 10

	KindInvalidRequest  = "invalid_request"
	KindTooManyRequests = "too_many_requests"
	KindUnauthenticated = "unauthenticated"
	KindInternal        = "internal"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Error - 0 при успехе, код ошибки иначе.
// Поле Kind - машиночитаемый вид ошибки.
// Поле Msg - текст ошибки для показа пользователю.
// Поле Data - данные ответа (при успехе).
type Response struct {
	Error int    `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Msg   string `json:"msg,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// ErrorResponse - структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Error int    `json:"error" example:"6"`
	Kind  string `json:"kind" example:"entitlement_rejected"`
	Msg   string `json:"msg" example:"license cannot be applied: trial already used"`
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Error: CodeOK,
		Data:  data,
	}
}

// Error возвращает Response с кодом, видом и сообщением ошибки.
func Error(code int, kind, msg string) Response {
	return Response{
		Error: code,
		Kind:  kind,
		Msg:   msg,
	}
}

// InvalidRequest возвращает ошибку некорректного запроса.
func InvalidRequest(msg string) Response {
	return Error(CodeInvalidRequest, KindInvalidRequest, msg)
}

// ValidationError формирует ответ на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "printascii":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only printable characters", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return InvalidRequest(strings.Join(errsMsgs, ", "))
}
