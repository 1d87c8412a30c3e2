package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the dev server.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine, apiRoot string) {
	doc := strings.ReplaceAll(swaggerJSON, "{apiRoot}", apiRoot)
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>taskpulse dev server</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "taskpulse", "version": "v0.1.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Credentials": { "type": "object", "required": ["email","password"], "properties": { "email": {"type":"string"}, "password": {"type":"string"} } },
      "AuthResult": { "type": "object", "properties": { "data": { "type": "object", "properties": { "user_id": {"type":"integer"}, "email": {"type":"string"}, "token": {"type":"string"} } } } },
      "Task": { "type": "object", "properties": { "id": {"type":"integer"}, "title": {"type":"string"}, "description": {"type":"string","nullable":true}, "is_completed": {"type":"boolean"}, "user_id": {"type":"integer"}, "created_at": {"type":"string","format":"date-time"}, "updated_at": {"type":"string","format":"date-time"} } },
      "Failure": { "type": "object", "properties": { "error": {"type":"string"}, "message": {"type":"string"}, "detail": {} } }
    }
  },
  "paths": {
    "{apiRoot}/auth/register": { "post": { "summary": "Create an account", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Credentials" } } } }, "responses": { "200": { "description": "credential issued" }, "400": { "description": "invalid input" } } } },
    "{apiRoot}/auth/login": { "post": { "summary": "Sign in", "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Credentials" } } } }, "responses": { "200": { "description": "credential issued" }, "401": { "description": "bad credentials" } } } },
    "{apiRoot}/auth/me": { "get": { "summary": "Identity check", "security": [{"bearer": []}], "responses": { "200": { "description": "current user" }, "401": { "description": "unauthenticated" } } } },
    "{apiRoot}/auth/logout": { "post": { "summary": "Acknowledge logout", "responses": { "200": { "description": "ok" } } } },
    "{apiRoot}/{user_id}/tasks": {
      "get": { "summary": "List tasks", "security": [{"bearer": []}], "responses": { "200": { "description": "tasks" }, "401": { "description": "unauthenticated" }, "403": { "description": "user id mismatch" } } },
      "post": { "summary": "Create task", "security": [{"bearer": []}], "responses": { "200": { "description": "created" }, "422": { "description": "invalid" } } }
    },
    "{apiRoot}/{user_id}/tasks/{task_id}": {
      "get": { "summary": "Get task", "security": [{"bearer": []}], "responses": { "200": { "description": "task" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update task", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "patch": { "summary": "Set completion", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete task", "security": [{"bearer": []}], "responses": { "200": { "description": "deleted" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
