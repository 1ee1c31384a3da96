// Package docs registers the Swagger specification served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "summary": "Service status",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health": {
            "get": {
                "summary": "Dependency health",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Dependency unavailable"}
                }
            }
        },
        "/sheets": {
            "post": {
                "summary": "Fill a character sheet",
                "description": "Maps the posted character document onto the sheet template and returns the filled PDF.",
                "consumes": ["application/json"],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "template_id", "in": "query", "type": "string", "description": "Registry template to fill instead of the bundled sheet"},
                    {"name": "character", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Filled PDF stream"},
                    "400": {"description": "Body is not a valid character document"},
                    "404": {"description": "Template not found"},
                    "422": {"description": "Character data failed a derivation"},
                    "500": {"description": "Render failed"},
                    "503": {"description": "Template unavailable"}
                }
            }
        },
        "/templates": {
            "get": {
                "summary": "List registered templates",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "summary": "Upload a sheet template",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "422": {"description": "Not a fillable PDF"}
                }
            }
        },
        "/templates/{id}": {
            "get": {
                "summary": "Get template metadata",
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "summary": "Delete a template",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/templates/{id}/download": {
            "get": {
                "summary": "Presigned template download URL",
                "produces": ["application/json"],
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Elysium Sheet API",
	Description:      "Fills V20 character sheets from structured character data.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
