// Package docs регистрирует swagger-описание API для /swagger/*.
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
        "/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Список активных событий",
                "parameters": [
                    {"type": "string", "description": "Поисковая строка", "name": "q", "in": "query"},
                    {"type": "string", "description": "all | online | offline", "name": "tab", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.EventCatalogue"}},
                    "422": {"description": "Неизвестная вкладка", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/events/{eventID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Детали события",
                "parameters": [{"type": "integer", "description": "Event ID", "name": "eventID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.EventDetail"}},
                    "404": {"description": "Событие не найдено", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/events/{eventID}/registration": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Состояние регистрации на событие",
                "parameters": [{"type": "integer", "description": "Event ID", "name": "eventID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.RegistrationState"}},
                    "404": {"description": "Событие не найдено", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Зарегистрироваться на событие",
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "eventID", "in": "path", "required": true},
                    {"description": "Профиль и состав команды", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.RegistrationForm"}}
                ],
                "responses": {
                    "200": {"description": "Уже зарегистрирован", "schema": {"$ref": "#/definitions/services.RegistrationState"}},
                    "201": {"description": "Регистрация создана", "schema": {"$ref": "#/definitions/services.RegistrationState"}},
                    "401": {"description": "Неавторизован", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "403": {"description": "Регистрация закрыта / дедлайн прошел", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "409": {"description": "Мест нет", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "422": {"description": "Ошибка состава команды", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "429": {"description": "Слишком много запросов", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/events/{eventID}/registration/submission": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["registrations"],
                "summary": "Загрузить работу участника",
                "parameters": [
                    {"type": "integer", "description": "Event ID", "name": "eventID", "in": "path", "required": true},
                    {"type": "file", "description": "Файл работы", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Registration"}},
                    "404": {"description": "Регистрация не найдена", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "409": {"description": "Статус не позволяет загрузку", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "503": {"description": "Хранилище не настроено", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Профиль и регистрации текущего пользователя",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/me/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Профиль текущего пользователя",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Profile"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Сохранить профиль",
                "parameters": [{"description": "Поля профиля", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ProfileFields"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Profile"}}}
            }
        },
        "/me/profile/avatar": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Загрузить аватар",
                "parameters": [{"type": "file", "description": "Изображение (jpeg, png, webp)", "name": "avatar", "in": "formData", "required": true}],
                "responses": {"200": {"description": "URL аватара"}}
            }
        },
        "/me/registrations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Регистрации текущего пользователя",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/me/registrations/{eventID}/ticket": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Код билета для входа",
                "parameters": [{"type": "integer", "description": "Event ID", "name": "eventID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/me/notifications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "Уведомления текущего пользователя",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/me/notifications/{notificationID}/read": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["notifications"],
                "summary": "Отметить уведомление прочитанным",
                "parameters": [{"type": "string", "description": "Notification ID (uuid)", "name": "notificationID", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/checkin": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["checkin"],
                "summary": "Отметить участника на входе",
                "parameters": [{"description": "Код билета", "name": "body", "in": "body", "required": true, "schema": {"type": "object", "properties": {"code": {"type": "string"}}}}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Только для организаторов", "schema": {"$ref": "#/definitions/errorResponse"}},
                    "422": {"description": "Неверный код", "schema": {"$ref": "#/definitions/errorResponse"}}
                }
            }
        },
        "/ws/notifications": {
            "get": {
                "tags": ["notifications"],
                "summary": "Поток уведомлений пользователя (WebSocket)",
                "parameters": [{"type": "string", "description": "Bearer token", "name": "token", "in": "query", "required": true}],
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "models.ProfileFields": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "institution": {"type": "string"},
                "phone": {"type": "string"},
                "gender": {"type": "string"},
                "date_of_birth": {"type": "string"},
                "t_shirt_size": {"type": "string"},
                "bio": {"type": "string"}
            }
        },
        "models.Profile": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "institution": {"type": "string"},
                "phone": {"type": "string"},
                "profile_picture": {"type": "string"},
                "gender": {"type": "string"},
                "date_of_birth": {"type": "string"},
                "t_shirt_size": {"type": "string"},
                "bio": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "models.Registration": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "string"},
                "event_id": {"type": "integer"},
                "team_id": {"type": "integer"},
                "status": {"type": "string", "enum": ["pending", "confirmed", "submitted", "checked_in"]},
                "registration_date": {"type": "string"},
                "submission_url": {"type": "string"}
            }
        },
        "services.RegistrationForm": {
            "type": "object",
            "properties": {
                "profile": {"$ref": "#/definitions/models.ProfileFields"},
                "team_name": {"type": "string"},
                "members": {"type": "array", "items": {"type": "string"}}
            }
        },
        "services.RegistrationState": {
            "type": "object",
            "properties": {
                "phase": {"type": "string", "enum": ["unchecked", "checking", "not_registered", "submitting", "registered"]},
                "status": {"type": "string"},
                "label": {"type": "string"},
                "badge_color": {"type": "string"},
                "hint": {"type": "string"},
                "message": {"type": "string"},
                "can_submit": {"type": "boolean"},
                "event_id": {"type": "integer"},
                "team_id": {"type": "integer"}
            }
        },
        "services.EventCatalogue": {
            "type": "object",
            "properties": {
                "events": {"type": "array", "items": {"type": "object"}},
                "online_count": {"type": "integer"},
                "offline_count": {"type": "integer"}
            }
        },
        "services.EventDetail": {
            "type": "object",
            "properties": {
                "requirements": {"type": "array", "items": {"type": "string"}},
                "prizes": {"type": "array", "items": {"type": "string"}},
                "countdown": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Event Portal API",
	Description:      "Регистрация на события конференции: каталог, регистрация участников и команд, профиль, уведомления, check-in.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
