// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g internal/platform/httpserver/server.go -d .,contexts -o internal/platform/httpserver/docs
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
        "/healthz": {
            "get": {"tags": ["platform"], "summary": "Liveness check", "responses": {"200": {"description": "OK"}}}
        },
        "/profile": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["profile"],
                "summary": "Create the caller's profile on first sign-in",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/profile/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["profile"],
                "summary": "Read the caller's profile",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/claims": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["claims"],
                "summary": "List every claim with its resolved owner",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["claims"],
                "summary": "File a claim",
                "parameters": [
                    {"type": "string", "description": "Replays the original claim for a repeated request", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/claims/uploads": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["claims"],
                "summary": "Presign an evidence upload",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/claims/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["claims"],
                "summary": "List the caller's claims",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/claims/{claim_id}/approve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["claims"],
                "summary": "Approve a pending claim",
                "parameters": [{"type": "string", "name": "claim_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Validation failed or ALREADY_PROCESSED", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "AUDIT_WRITE_FAILED", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/claims/{claim_id}/deny": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["claims"],
                "summary": "Deny a pending claim",
                "parameters": [{"type": "string", "name": "claim_id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Validation failed or ALREADY_PROCESSED", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "AUDIT_WRITE_FAILED", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/policies": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["policies"],
                "summary": "List the caller's policies with derived status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/policies/checkout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["policies"],
                "summary": "Start a single-showing policy checkout",
                "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/admin/policies": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "List every policy with owner email and claim count",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/agent/subscribe": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["billing"],
                "summary": "Start an agent subscription checkout",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/agent/cancel-subscription": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["billing"],
                "summary": "Cancel the agent subscription",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/webhooks/payments": {
            "post": {
                "tags": ["billing"],
                "summary": "Receive payment processor events",
                "parameters": [{"type": "string", "name": "Stripe-Signature", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/admin/overview": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Dashboard counters and recent admin actions",
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/admin/audit-logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "List recent audit entries",
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/admin/notes": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "List admin notes for a resource",
                "parameters": [
                    {"type": "string", "name": "resource_type", "in": "query", "required": true},
                    {"type": "string", "name": "resource_id", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Attach a note to a claim, policy or user",
                "parameters": [{"type": "string", "name": "Idempotency-Key", "in": "header"}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Showing Cover API",
	Description:      "Policies, claims, subscriptions and admin operations for showing coverage.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
