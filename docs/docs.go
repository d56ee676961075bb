// Package docs registers the OpenAPI document of the Tsukuyomi API with swag
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
        "/api/v1/regions": {
            "get": {
                "security": [{"TokenAuth": []}],
                "produces": ["application/json"],
                "tags": ["Regions"],
                "summary": "List regions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RegionListDocument"}},
                    "403": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/dto.JSONAPIErrorDocument"}}
                }
            },
            "post": {
                "security": [{"TokenAuth": []}],
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Regions"],
                "summary": "Create region",
                "parameters": [
                    {"description": "Region attributes", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RegionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.RegionDocument"}},
                    "403": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/dto.JSONAPIErrorDocument"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/dto.JSONAPIErrorDocument"}}
                }
            }
        },
        "/api/v1/regions/{id}": {
            "get": {
                "security": [{"TokenAuth": []}],
                "produces": ["application/json"],
                "tags": ["Regions"],
                "summary": "Show region",
                "parameters": [{"type": "string", "description": "Region ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RegionDocument"}},
                    "404": {"description": "Region not found", "schema": {"$ref": "#/definitions/dto.JSONAPIErrorDocument"}}
                }
            },
            "put": {
                "security": [{"TokenAuth": []}],
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Regions"],
                "summary": "Update region",
                "parameters": [
                    {"type": "string", "description": "Region ID", "name": "id", "in": "path", "required": true},
                    {"description": "Region attributes", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RegionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.RegionDocument"}},
                    "404": {"description": "Region not found", "schema": {"$ref": "#/definitions/dto.JSONAPIErrorDocument"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/dto.JSONAPIErrorDocument"}}
                }
            },
            "delete": {
                "security": [{"TokenAuth": []}],
                "produces": ["application/json"],
                "tags": ["Regions"],
                "summary": "Delete region",
                "parameters": [{"type": "string", "description": "Region ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"type": "object"}},
                    "404": {"description": "Region not found", "schema": {"$ref": "#/definitions/dto.JSONAPIErrorDocument"}}
                }
            }
        },
        "/api/v1/users/sign_in": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Sign in",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SignInRequest"}}
                ],
                "responses": {
                    "200": {"description": "Signed in", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Invalid email or password", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Account locked, inactive or unconfirmed", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/users/sign_out": {
            "delete": {
                "security": [{"TokenAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Sign out",
                "responses": {
                    "200": {"description": "Signed out", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/admin/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin Authentication"],
                "summary": "Admin login",
                "parameters": [
                    {"description": "Admin login data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AdminLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {}
            }
        },
        "dto.RegionAttributes": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Central Texas"},
                "abbreviation": {"type": "string", "example": "CTX"},
                "time_zone": {"type": "string", "example": "America/Chicago"},
                "admin_notes": {"type": "string", "example": ""},
                "archived": {"type": "boolean", "example": false},
                "test": {"type": "boolean", "example": false}
            }
        },
        "dto.RegionResource": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "example": "regions"},
                "attributes": {"$ref": "#/definitions/dto.RegionAttributes"}
            }
        },
        "dto.RegionDocument": {
            "type": "object",
            "properties": {"data": {"$ref": "#/definitions/dto.RegionResource"}}
        },
        "dto.RegionListDocument": {
            "type": "object",
            "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/dto.RegionResource"}}}
        },
        "dto.RegionRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "abbreviation": {"type": "string"},
                "time_zone": {"type": "string"},
                "admin_notes": {"type": "string"},
                "archived": {"type": "boolean"},
                "test": {"type": "boolean"}
            }
        },
        "dto.JSONAPIError": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "422"},
                "code": {"type": "string", "example": "blank"},
                "title": {"type": "string", "example": "Invalid attribute"},
                "detail": {"type": "string", "example": "name can't be blank"},
                "source": {"type": "object", "properties": {"pointer": {"type": "string", "example": "/data/attributes/name"}}}
            }
        },
        "dto.JSONAPIErrorDocument": {
            "type": "object",
            "properties": {"errors": {"type": "array", "items": {"$ref": "#/definitions/dto.JSONAPIError"}}}
        },
        "dto.SignInRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "example": "user@example.com"},
                "password": {"type": "string"}
            }
        },
        "dto.AdminLoginRequest": {
            "type": "object",
            "required": ["challenge_id", "email", "password"],
            "properties": {
                "challenge_id": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "user_angle": {"type": "number"}
            }
        }
    },
    "securityDefinitions": {
        "TokenAuth": {
            "description": "Token <token> as returned by sign in",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        },
        "BearerAuth": {
            "description": "Bearer <admin access token>",
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
	Title:            "Tsukuyomi API",
	Description:      "Back office API for events, users, tags and regions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
