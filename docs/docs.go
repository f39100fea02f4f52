// Package docs holds the OpenAPI description served at /swagger.
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "credentials", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Credentials"}}
                ],
                "responses": {
                    "200": {"description": "Logged in", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {"200": {"description": "Logged out", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}}
            }
        },
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register an account",
                "parameters": [
                    {"description": "Registration", "name": "registration", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Registration"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current session",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}}
            }
        },
        "/storage/upload-url": {
            "get": {
                "produces": ["application/json"],
                "tags": ["storage"],
                "summary": "Issue a write-only upload URL",
                "parameters": [{"type": "string", "description": "Audio file name", "name": "filename", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Invalid file name", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/meetings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meetings"],
                "summary": "List my meetings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}}
            }
        },
        "/meetings/basic-info": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["meetings"],
                "summary": "Save meeting basic info",
                "parameters": [
                    {"description": "Basic info", "name": "info", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.BasicInfo"}}
                ],
                "responses": {
                    "201": {"description": "Meeting created", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/meetings/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meetings"],
                "summary": "Search meetings",
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "integer", "name": "user_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}}
            }
        },
        "/meetings/{id}/transcript": {
            "get": {
                "produces": ["application/json"],
                "tags": ["feedback"],
                "summary": "Meeting transcript with comments and playback URLs",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/segments/{id}/comments": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["feedback"],
                "summary": "Add a comment",
                "parameters": [
                    {"type": "integer", "name": "id", "in": "path", "required": true},
                    {"description": "Comment", "name": "comment", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AddCommentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "404": {"description": "Segment not found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "409": {"description": "Submit in progress", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/recordings": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["recordings"],
                "summary": "Open a recording session",
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}}
            }
        },
        "/recordings/{id}/stop": {
            "post": {
                "produces": ["application/json"],
                "tags": ["recordings"],
                "summary": "Stop and upload a recording",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Upload queued", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "409": {"description": "Already stopped", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "My dashboard",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}}
            }
        },
        "/manager/dashboard": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Team dashboard",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "403": {"description": "Managers only", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.AddCommentRequest": {
            "type": "object",
            "required": ["content", "meeting_id"],
            "properties": {
                "content": {"type": "string", "maxLength": 2000},
                "meeting_id": {"type": "integer"}
            }
        },
        "models.BasicInfo": {
            "type": "object",
            "required": ["client_company_name", "client_contact_name", "meeting_datetime"],
            "properties": {
                "client_company_name": {"type": "string", "maxLength": 200},
                "client_contact_name": {"type": "string", "maxLength": 100},
                "meeting_datetime": {"type": "string"},
                "industry": {"type": "string"},
                "scale": {"type": "string"},
                "meeting_goal": {"type": "string"}
            }
        },
        "models.Credentials": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "models.Registration": {
            "type": "object",
            "required": ["email", "password", "user_name"],
            "properties": {
                "email": {"type": "string"},
                "is_manager": {"type": "boolean"},
                "manager_id": {"type": "integer"},
                "password": {"type": "string", "minLength": 8},
                "user_name": {"type": "string", "maxLength": 100}
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "errors": {"type": "array", "items": {"type": "string"}},
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "utils.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Sales Meeting Review Gateway",
	Description:      "Session, recording, feedback and dashboard API in front of the meeting backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
