// Package docs registers the storefront OpenAPI description with swag so
// echo-swagger can serve it under /swagger/.
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
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.RegisterInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.LoginInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"CookieAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            }
        },
        "/items": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "List items",
                "parameters": [
                    {"type": "string", "description": "Case-insensitive name substring", "name": "name", "in": "query"},
                    {"type": "string", "description": "Case-insensitive category substring", "name": "category", "in": "query"},
                    {"type": "number", "description": "Minimum price (inclusive)", "name": "minPrice", "in": "query"},
                    {"type": "number", "description": "Maximum price (inclusive)", "name": "maxPrice", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.itemsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            },
            "post": {
                "security": [{"CookieAuth": []}, {"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Create an item",
                "parameters": [
                    {"description": "Item", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.CreateItemInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.itemResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            }
        },
        "/items/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Get an item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.itemResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            },
            "put": {
                "security": [{"CookieAuth": []}, {"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Update an item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.UpdateItemInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.itemResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            },
            "delete": {
                "security": [{"CookieAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Delete an item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            }
        },
        "/items/{id}/purchase": {
            "post": {
                "security": [{"CookieAuth": []}, {"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stock"],
                "summary": "Purchase an item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Deduplicates retried purchases", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Quantity to buy", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.StockChangeInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.purchaseResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            }
        },
        "/items/{id}/restock": {
            "post": {
                "security": [{"CookieAuth": []}, {"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["stock"],
                "summary": "Restock an item",
                "parameters": [
                    {"type": "string", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"description": "Quantity to add", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.StockChangeInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.itemResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Item": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "price": {"type": "number"},
                "quantity": {"type": "integer"},
                "description": {"type": "string"},
                "imageUrl": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string", "enum": ["USER", "ADMIN"]},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "handler.authResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "handler.userResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "handler.itemResponse": {
            "type": "object",
            "properties": {
                "item": {"$ref": "#/definitions/domain.Item"}
            }
        },
        "handler.itemsResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.Item"}}
            }
        },
        "handler.purchaseResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "item": {"$ref": "#/definitions/domain.Item"}
            }
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Item not found"},
                "code": {"type": "string", "example": "NOT_FOUND"}
            }
        },
        "ports.RegisterInput": {
            "type": "object",
            "required": ["email", "password", "name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "name": {"type": "string", "minLength": 2},
                "role": {"type": "string", "enum": ["USER", "ADMIN"]}
            }
        },
        "ports.LoginInput": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ports.CreateItemInput": {
            "type": "object",
            "required": ["name", "category", "price", "quantity"],
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "price": {"type": "number"},
                "quantity": {"type": "integer", "minimum": 0},
                "description": {"type": "string"},
                "imageUrl": {"type": "string"}
            }
        },
        "ports.UpdateItemInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "category": {"type": "string"},
                "price": {"type": "number"},
                "quantity": {"type": "integer", "minimum": 0},
                "description": {"type": "string"},
                "imageUrl": {"type": "string"}
            }
        },
        "ports.StockChangeInput": {
            "type": "object",
            "required": ["quantity"],
            "properties": {
                "quantity": {"type": "integer", "minimum": 1}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "CookieAuth": {"type": "apiKey", "name": "auth-token", "in": "cookie"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Inventory catalogue, stock purchases and restocks with role-based access.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
