// Package docs registers the Swagger spec for the msgbox introspection
// API so ginSwagger.WrapHandler can serve it at /swagger/index.html.
//
// Normally this file is produced by `swag init` from the annotations in
// internal/admin/handlers; it is hand-written here since no swag
// toolchain run is part of this build.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "msgbox maintainers",
            "url": "https://github.com/jroosing/msgbox"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Liveness check",
                "responses": {
                    "200": { "description": "OK", "schema": { "$ref": "#/definitions/models.StatusResponse" } }
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "summary": "Engine counters and host resource usage",
                "responses": {
                    "200": { "description": "OK", "schema": { "$ref": "#/definitions/models.StatsResponse" } }
                }
            }
        },
        "/connections": {
            "get": {
                "produces": ["application/json"],
                "summary": "List live connections",
                "responses": {
                    "200": { "description": "OK", "schema": { "$ref": "#/definitions/models.ConnectionsResponse" } }
                }
            }
        }
    },
    "definitions": {
        "models.StatusResponse": {
            "type": "object",
            "properties": { "status": { "type": "string" } }
        },
        "models.StatsResponse": {
            "type": "object",
            "properties": {
                "connections_opened": { "type": "integer" },
                "connections_closed": { "type": "integer" },
                "active_connections": { "type": "integer" },
                "bytes_sent": { "type": "integer" },
                "bytes_received": { "type": "integer" },
                "events_delivered": { "type": "integer" },
                "poll_calls": { "type": "integer" },
                "errors": { "type": "integer" },
                "uptime_seconds": { "type": "number" },
                "memory_used_percent": { "type": "number" },
                "cpu_used_percent": { "type": "number" }
            }
        },
        "models.ConnectionResponse": {
            "type": "object",
            "properties": {
                "trace_id": { "type": "string" },
                "transport": { "type": "string" },
                "role": { "type": "string" },
                "local_addr": { "type": "string" },
                "remote_addr": { "type": "string" }
            }
        },
        "models.ConnectionsResponse": {
            "type": "object",
            "properties": {
                "count": { "type": "integer" },
                "connections": {
                    "type": "array",
                    "items": { "$ref": "#/definitions/models.ConnectionResponse" }
                }
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "in": "header",
            "name": "X-API-Key"
        }
    }
}`

// SwaggerInfo holds exported Swagger metadata, populated to match the
// annotations in internal/admin/handlers/base.go.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "msgbox introspection API",
	Description:      "Read-only introspection for a running msgbox engine: health, counters, and live connections.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
