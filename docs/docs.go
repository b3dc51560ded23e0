// Package docs registers the admin API's OpenAPI description with swag so
// gin-swagger can serve it. Regenerate with `swag init` after changing the
// handler annotations.
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
    "securityDefinitions": {
        "AdminToken": {
            "type": "apiKey",
            "name": "X-Admin-Token",
            "in": "header"
        }
    },
    "security": [{"AdminToken": []}],
    "paths": {
        "/admin/sync/symbols": {
            "post": {
                "description": "Register symbols from search keywords, the provider's active listing, or an uploaded exchange listing file",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Register new symbols",
                "parameters": [
                    {"description": "Keywords or source", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/models.SyncSymbolsRequest"}},
                    {"type": "file", "description": "Exchange listing file", "name": "file", "in": "formData"},
                    {"type": "string", "description": "NASDAQ, NYSE or DIGITAL", "name": "exchange", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SyncResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/sync/overviews": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Fetch missing company overviews",
                "parameters": [
                    {"description": "Symbol selection", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/models.SyncSelection"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SyncResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/sync/intraday": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Load intraday bars newer than the stored watermark",
                "parameters": [
                    {"description": "Symbol selection", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/models.SyncSelection"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SyncResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/sync/daily": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Load daily bars newer than the stored watermark",
                "parameters": [
                    {"description": "Symbol selection", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/models.SyncSelection"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SyncResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/sync/news": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Store news sentiment snapshots",
                "parameters": [
                    {"description": "Symbol selection", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/models.SyncSelection"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SyncResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/sync/top-movers": {
            "post": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Store the day's top gainers, losers and most active",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SyncResult"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/runs/{run_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Read a run from the ledger",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "run_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SyncResult"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.SyncSymbolsRequest": {
            "type": "object",
            "properties": {
                "keywords": {"type": "array", "items": {"type": "string"}},
                "source": {"type": "string"}
            }
        },
        "models.SyncSelection": {
            "type": "object",
            "properties": {
                "region": {"type": "string"},
                "sec_types": {"type": "array", "items": {"type": "string"}},
                "symbols": {"type": "array", "items": {"type": "string"}},
                "limit": {"type": "integer"}
            }
        },
        "models.Warning": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "models.SyncResult": {
            "type": "object",
            "properties": {
                "run_id": {"type": "string"},
                "kind": {"type": "string"},
                "state": {"type": "string"},
                "items": {"type": "integer"},
                "fetched": {"type": "integer"},
                "no_data": {"type": "integer"},
                "created": {"type": "integer"},
                "skipped": {"type": "integer"},
                "failed": {"type": "integer"},
                "error_count": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "warnings": {"type": "array", "items": {"$ref": "#/definitions/models.Warning"}},
                "started": {"type": "string"},
                "finished": {"type": "string"},
                "duration_ms": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "marketsync admin API",
	Description:      "Triggers incremental market data syncs and reads the run ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
