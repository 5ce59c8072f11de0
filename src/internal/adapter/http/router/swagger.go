package router

import (
	"fmt"
	"net/http"
)

func registerSwaggerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	mux.HandleFunc("GET /swagger/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	})

	mux.HandleFunc("GET /swagger/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	})
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Ledger Engine API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Ledger Engine API",
    "version": "1.0.0"
  },
  "paths": {
    "/api/v1/accounts": {
      "post": {
        "summary": "Open account",
        "security": [{"BasicAuth": []}],
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["currency"],
                "properties": {
                  "currency": {"type": "string", "enum": ["RUR", "USD", "GBT"]}
                }
              }
            }
          }
        },
        "responses": {
          "201": {"description": "Account created", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/AccountEnvelope"}}}},
          "400": {"description": "Validation error"},
          "401": {"description": "Unauthorized"},
          "500": {"description": "Server error"}
        }
      }
    },
    "/api/v1/accounts/{id}": {
      "parameters": [{"$ref": "#/components/parameters/AccountID"}],
      "get": {
        "summary": "Get account",
        "security": [{"BasicAuth": []}],
        "responses": {
          "200": {"description": "Account fetched", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/AccountEnvelope"}}}},
          "400": {"description": "Validation error"},
          "401": {"description": "Unauthorized"},
          "404": {"description": "Account not found"},
          "500": {"description": "Server error"}
        }
      },
      "patch": {
        "summary": "Close account",
        "description": "Closing an already closed account keeps its original close time.",
        "security": [{"BasicAuth": []}],
        "responses": {
          "200": {"description": "Account closed", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/AccountEnvelope"}}}},
          "400": {"description": "Validation error"},
          "401": {"description": "Unauthorized"},
          "404": {"description": "Account not found"},
          "500": {"description": "Server error"}
        }
      }
    },
    "/api/v1/accounts/{id}/operations/deposits": {
      "parameters": [{"$ref": "#/components/parameters/AccountID"}],
      "post": {
        "summary": "Deposit funds",
        "security": [{"BasicAuth": []}],
        "requestBody": {"$ref": "#/components/requestBodies/Operation"},
        "responses": {
          "201": {"description": "Transaction recorded, COMPLETED or FAILED", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TransactionEnvelope"}}}},
          "400": {"description": "Validation error"},
          "401": {"description": "Unauthorized"},
          "500": {"description": "Server error"}
        }
      }
    },
    "/api/v1/accounts/{id}/operations/withdrawals": {
      "parameters": [{"$ref": "#/components/parameters/AccountID"}],
      "post": {
        "summary": "Withdraw funds",
        "security": [{"BasicAuth": []}],
        "requestBody": {"$ref": "#/components/requestBodies/Operation"},
        "responses": {
          "201": {"description": "Transaction recorded, COMPLETED or FAILED", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TransactionEnvelope"}}}},
          "400": {"description": "Validation error"},
          "401": {"description": "Unauthorized"},
          "500": {"description": "Server error"}
        }
      }
    },
    "/api/v1/accounts/{id}/operations": {
      "parameters": [{"$ref": "#/components/parameters/AccountID"}],
      "get": {
        "summary": "List completed legs of an account",
        "description": "Half-open range [from, to), oldest first, at most 100 legs.",
        "security": [{"BasicAuth": []}],
        "parameters": [
          {"name": "from", "in": "query", "required": true, "schema": {"type": "string", "format": "date-time"}},
          {"name": "to", "in": "query", "required": true, "schema": {"type": "string", "format": "date-time"}}
        ],
        "responses": {
          "200": {"description": "Legs fetched"},
          "400": {"description": "Validation error"},
          "401": {"description": "Unauthorized"},
          "404": {"description": "Account not found"},
          "500": {"description": "Server error"}
        }
      }
    },
    "/api/v1/transfers": {
      "post": {
        "summary": "Transfer funds between accounts",
        "security": [{"BasicAuth": []}],
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["sourceAccountId", "targetAccountId", "amount"],
                "properties": {
                  "sourceAccountId": {"type": "integer", "format": "int64"},
                  "targetAccountId": {"type": "integer", "format": "int64"},
                  "amount": {"type": "string", "example": "100.50"}
                }
              }
            }
          }
        },
        "responses": {
          "201": {"description": "Transaction recorded, COMPLETED or FAILED", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TransactionEnvelope"}}}},
          "400": {"description": "Validation error"},
          "401": {"description": "Unauthorized"},
          "500": {"description": "Server error"}
        }
      }
    },
    "/api/v1/transactions/{id}": {
      "get": {
        "summary": "Get transaction",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "integer", "format": "int64"}}],
        "responses": {
          "200": {"description": "Transaction fetched", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TransactionEnvelope"}}}},
          "400": {"description": "Validation error"},
          "401": {"description": "Unauthorized"},
          "404": {"description": "Transaction not found"},
          "500": {"description": "Server error"}
        }
      }
    },
    "/healthz": {
      "get": {
        "summary": "Health check",
        "responses": {
          "200": {"description": "Database reachable"},
          "503": {"description": "Database unavailable"}
        }
      }
    }
  },
  "components": {
    "securitySchemes": {
      "BasicAuth": {
        "type": "http",
        "scheme": "basic"
      }
    },
    "parameters": {
      "AccountID": {"name": "id", "in": "path", "required": true, "schema": {"type": "integer", "format": "int64"}}
    },
    "requestBodies": {
      "Operation": {
        "required": true,
        "content": {
          "application/json": {
            "schema": {
              "type": "object",
              "required": ["amount"],
              "properties": {
                "amount": {"type": "string", "example": "25.00"}
              }
            }
          }
        }
      }
    },
    "schemas": {
      "Account": {
        "type": "object",
        "properties": {
          "id": {"type": "integer", "format": "int64"},
          "balance": {"type": "string"},
          "currency": {"type": "string"},
          "createdAt": {"type": "string", "format": "date-time"},
          "closedAt": {"type": "string", "format": "date-time"}
        }
      },
      "Leg": {
        "type": "object",
        "properties": {
          "id": {"type": "integer", "format": "int64"},
          "accountId": {"type": "integer", "format": "int64"},
          "transactionId": {"type": "integer", "format": "int64"},
          "amount": {"type": "string"}
        }
      },
      "Transaction": {
        "type": "object",
        "properties": {
          "id": {"type": "integer", "format": "int64"},
          "status": {"type": "string", "enum": ["COMPLETED", "FAILED"]},
          "createdAt": {"type": "string", "format": "date-time"},
          "updatedAt": {"type": "string", "format": "date-time"},
          "errorReason": {"type": "string"},
          "legs": {"type": "array", "items": {"$ref": "#/components/schemas/Leg"}}
        }
      },
      "AccountEnvelope": {
        "type": "object",
        "properties": {
          "success": {"type": "boolean"},
          "message": {"type": "string"},
          "data": {"$ref": "#/components/schemas/Account"},
          "errors": {"type": "array", "items": {"type": "string"}}
        }
      },
      "TransactionEnvelope": {
        "type": "object",
        "properties": {
          "success": {"type": "boolean"},
          "message": {"type": "string"},
          "data": {"$ref": "#/components/schemas/Transaction"},
          "errors": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`
