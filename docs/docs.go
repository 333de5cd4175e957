// Package docs registers the OpenAPI description of the Nova Core API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Nova Labs"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "description": "Authenticate with email and password to receive a JWT token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "User login",
                "parameters": [
                    {"description": "Login credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.LoginResponse"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Invalid credentials or account disabled", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Authentication"],
                "summary": "Logout user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.StatusResponse"}}
                }
            }
        },
        "/setup": {
            "post": {
                "description": "Create the initial admin user. This endpoint can only be called once when no users exist.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Setup"],
                "summary": "Initial setup",
                "parameters": [
                    {"description": "Admin user details", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/driving.SetupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Setup already complete", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/models": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Models"],
                "summary": "List personas",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Model"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Create a persona and ingest its documents (admin only)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Models"],
                "summary": "Create persona",
                "parameters": [
                    {"description": "Persona", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/driving.CreateModelRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid input or unsupported file type", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "403": {"description": "Forbidden - admin only", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/chat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Run one chat turn against a persona and return the whole reply",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Chat",
                "parameters": [
                    {"description": "Chat turn", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ChatRequest"}}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/http.ChatResponse"},
                        "headers": {"X-Conversation-ID": {"type": "string", "description": "Conversation the turn was recorded under"}}
                    },
                    "400": {"description": "Missing prompt or model_id", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "502": {"description": "AI provider error", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/chat/stream": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Run one chat turn and stream provider chunks as server-sent events, ending with data: [DONE]",
                "consumes": ["application/json"],
                "produces": ["text/event-stream"],
                "tags": ["Chat"],
                "summary": "Streaming chat",
                "parameters": [
                    {"description": "Chat turn", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "event stream", "schema": {"type": "string"}}
                }
            }
        },
        "/conversations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Conversations"],
                "summary": "List conversations",
                "parameters": [
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Conversation"}}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "http.StatusResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "http.ChatResponse": {
            "type": "object",
            "properties": {"reply": {"type": "string"}}
        },
        "domain.LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "domain.LoginResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "expires_at": {"type": "string"}}
        },
        "driving.SetupRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "name": {"type": "string"}}
        },
        "domain.ModelConfig": {
            "type": "object",
            "properties": {
                "system_prompt": {"type": "string"},
                "temperature": {"type": "number"},
                "max_tokens": {"type": "integer"},
                "chat_model": {"type": "string"},
                "use_retrieval": {"type": "boolean"},
                "web_search": {"type": "boolean"}
            }
        },
        "domain.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "config": {"$ref": "#/definitions/domain.ModelConfig"}
            }
        },
        "driving.CreateModelRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "config": {"$ref": "#/definitions/domain.ModelConfig"},
                "api_key": {"type": "string"},
                "documents": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {"name": {"type": "string"}, "mime_type": {"type": "string"}, "content": {"type": "string"}}
                    }
                }
            }
        },
        "domain.ChatRequest": {
            "type": "object",
            "properties": {
                "model_id": {"type": "string"},
                "conversation_id": {"type": "string"},
                "new_conversation": {"type": "boolean"},
                "prompt": {"type": "string"},
                "file_text": {"type": "string"},
                "introduction": {"type": "boolean"}
            }
        },
        "domain.Conversation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "model_id": {"type": "string"},
                "title": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Bearer token. Format: \"Bearer {token}\"",
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
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Nova Core API",
	Description:      "Persona chat API with retrieval-augmented generation over uploaded documents.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
