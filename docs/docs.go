// Package docs содержит описание API в формате Swagger для /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/account": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Возвращает тариф, баланс токенов и признак использованного пробного периода.",
                "produces": ["application/json"],
                "tags": ["Account"],
                "summary": "Права пользователя",
                "responses": {
                    "200": {"description": "Права пользователя", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Пользователь не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Ошибка сервера", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/v1/licenses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Возвращает активированные пользователем ключи, начиная с последних.",
                "produces": ["application/json"],
                "tags": ["Licenses"],
                "summary": "Журнал активаций",
                "responses": {
                    "200": {"description": "Список лицензий", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Ошибка сервера", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/api/v1/licenses/activate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Проверяет ключ у провайдера, применяет права пользователя и возвращает тип покупки: license, tokens или пустую строку.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Licenses"],
                "summary": "Активировать лицензионный ключ",
                "parameters": [
                    {
                        "description": "Ключ и имя экземпляра",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.ActivationRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Успешная активация", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Ключ недействителен, план не распознан или отклонён политикой", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "401": {"description": "Пользователь не авторизован", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "404": {"description": "Пользователь не найден", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Ключ уже активирован", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Ошибка валидации", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "429": {"description": "Слишком много запросов", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "500": {"description": "Ошибка сохранения", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "502": {"description": "Провайдер недоступен", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ActivationRequest": {
            "type": "object",
            "required": ["instance_name", "license_key"],
            "properties": {
                "instance_name": {"type": "string", "maxLength": 128},
                "license_key": {"type": "string", "maxLength": 256}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "integer", "example": 6},
                "kind": {"type": "string", "example": "entitlement_rejected"},
                "msg": {"type": "string", "example": "license cannot be applied: trial already used"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"type": "integer"},
                "kind": {"type": "string"},
                "msg": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "License Activator API",
	Description:      "API активации лицензионных ключей и начисления токенов",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
