package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ATFITK Student Registry API",
        "description": "Preventive registry of college students: profiles, registries, photos and exports",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and session lookup"},
        {"name": "Students", "description": "Student registry records"},
        {"name": "Photos", "description": "Student photos"},
        {"name": "Export", "description": "Journal and card documents"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["System"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "400": {"description": "Missing credentials", "schema": {"$ref": "#/definitions/Error"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"user": {"$ref": "#/definitions/User"}}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Newest first", "schema": {"type": "array", "items": {"$ref": "#/definitions/Student"}}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/Student"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Student"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Student"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "put": {
                "tags": ["Students"],
                "summary": "Replace student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/Student"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Student"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student (director only)",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/Message"}},
                    "403": {"description": "Director role required", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/students/{id}/photo": {
            "post": {
                "tags": ["Photos"],
                "summary": "Upload photo",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "formData", "name": "photo", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Stored", "schema": {"type": "object", "properties": {"photo": {"type": "string"}, "filename": {"type": "string"}}}},
                    "400": {"description": "Missing or non-image file", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/Error"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/Error"}}
                }
            },
            "delete": {
                "tags": ["Photos"],
                "summary": "Remove photo",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Removed", "schema": {"$ref": "#/definitions/Message"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/students/export": {
            "get": {
                "tags": ["Export"],
                "summary": "Export registry journal",
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "xlsx", "pdf"]},
                    {"in": "query", "name": "search", "type": "string"},
                    {"in": "query", "name": "group", "type": "string"},
                    {"in": "query", "name": "district", "type": "string"},
                    {"in": "query", "name": "status", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/students/{id}/card": {
            "get": {
                "tags": ["Export"],
                "summary": "Export student card",
                "produces": ["application/pdf"],
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "PDF", "schema": {"type": "file"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        }
    },
    "definitions": {
        "Error": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "Message": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "username": {"type": "string"},
                "role": {"type": "string", "enum": ["director", "psychologist"]},
                "displayName": {"type": "string"}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/User"}
            }
        },
        "Student": {
            "type": "object",
            "required": ["fullName"],
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "fullName": {"type": "string"},
                "birthDate": {"type": "string"},
                "group": {"type": "string"},
                "iin": {"type": "string"},
                "previousSchool": {"type": "string"},
                "specialty": {"type": "string"},
                "course": {"type": "string"},
                "address": {"type": "string"},
                "phone": {"type": "string"},
                "photo": {"type": "string"},
                "family": {"type": "object"},
                "internalRegistry": {"type": "object"},
                "policeRegistry": {"type": "object"},
                "consultations": {"type": "array", "items": {"type": "object"}},
                "psychologistRegistry": {"type": "object"},
                "supportGroup": {"type": "object"},
                "psychiatristRegistry": {"type": "object"},
                "cppAccompaniment": {"type": "object"},
                "suicideRegistry": {"type": "object"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
