package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Voyage API",
        "description": "Personal cruise itinerary planner with automatic conflict resolution",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Account registration and tokens"},
        {"name": "Events", "description": "Voyage event catalog and custom events"},
        {"name": "Attendance", "description": "Direct attendance toggles"},
        {"name": "Preferences", "description": "Candidate-filtering preferences"},
        {"name": "Planner", "description": "Scheduling sessions and conflict resolution"},
        {"name": "Agenda", "description": "Day-by-day agenda and exports"},
        {"name": "Import", "description": "Schedule ingestion"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List events",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "series", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{uid}": {
            "get": {
                "tags": ["Events"],
                "summary": "Get event",
                "parameters": [
                    {"name": "uid", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/events/custom": {
            "post": {
                "tags": ["Events"],
                "summary": "Create custom event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCustomEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/custom/{uid}": {
            "delete": {
                "tags": ["Events"],
                "summary": "Delete custom event",
                "parameters": [
                    {"name": "uid", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attended events",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/{uid}": {
            "put": {
                "tags": ["Attendance"],
                "summary": "Mark event attended",
                "parameters": [
                    {"name": "uid", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Marked"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Attendance"],
                "summary": "Unmark event attended",
                "parameters": [
                    {"name": "uid", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Unmarked"}
                }
            }
        },
        "/preferences": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Get preferences",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Preferences"],
                "summary": "Update preferences",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePreferencesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduler/sessions": {
            "post": {
                "tags": ["Planner"],
                "summary": "Start scheduling session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StartSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduler/sessions/{id}": {
            "get": {
                "tags": ["Planner"],
                "summary": "Get scheduling session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Session expired"}
                }
            },
            "delete": {
                "tags": ["Planner"],
                "summary": "Cancel scheduling session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Cancelled"}
                }
            }
        },
        "/scheduler/sessions/{id}/choices": {
            "post": {
                "tags": ["Planner"],
                "summary": "Submit conflict decisions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitChoicesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Choices still conflict"}
                }
            }
        },
        "/scheduler/sessions/{id}/back": {
            "post": {
                "tags": ["Planner"],
                "summary": "Undo last conflict decisions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Nothing to go back to"}
                }
            }
        },
        "/scheduler/sessions/{id}/alternatives": {
            "post": {
                "tags": ["Planner"],
                "summary": "Find alternative for a blocking event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StartAlternativeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/scheduler/sessions/{id}/apply": {
            "post": {
                "tags": ["Planner"],
                "summary": "Commit session schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Unresolved conflicts"}
                }
            }
        },
        "/scheduler/reschedule": {
            "post": {
                "tags": ["Planner"],
                "summary": "Reschedule one event",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/agenda": {
            "get": {
                "tags": ["Agenda"],
                "summary": "Get agenda",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/agenda/export": {
            "get": {
                "tags": ["Agenda"],
                "summary": "Export agenda",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/import/schedule": {
            "post": {
                "tags": ["Import"],
                "summary": "Import schedule batch",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ImportScheduleRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/import/ics": {
            "post": {
                "tags": ["Import"],
                "summary": "Import iCalendar file",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "display_name": {"type": "string"}
            },
            "required": ["email", "password", "display_name"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreateCustomEventRequest": {
            "type": "object",
            "properties": {
                "seriesName": {"type": "string"},
                "date": {"type": "string"},
                "startMinutes": {"type": "integer"},
                "endMinutes": {"type": "integer"},
                "location": {"type": "string"},
                "rrule": {"type": "string"}
            },
            "required": ["seriesName", "date", "endMinutes"]
        },
        "UpdatePreferencesRequest": {
            "type": "object",
            "properties": {
                "hiddenSeries": {"type": "array", "items": {"type": "string"}},
                "hiddenUids": {"type": "array", "items": {"type": "string"}},
                "blacklistedSeries": {"type": "array", "items": {"type": "string"}},
                "optionalSeries": {"type": "array", "items": {"type": "string"}}
            }
        },
        "StartSessionRequest": {
            "type": "object",
            "properties": {
                "seriesNames": {"type": "array", "items": {"type": "string"}},
                "includeOptional": {"type": "boolean"}
            }
        },
        "SessionChoice": {
            "type": "object",
            "properties": {
                "seriesName": {"type": "string"},
                "action": {"type": "string", "enum": ["skip", "select"]},
                "uid": {"type": "string"},
                "allowOverlap": {"type": "boolean"}
            },
            "required": ["seriesName", "action"]
        },
        "SubmitChoicesRequest": {
            "type": "object",
            "properties": {
                "choices": {"type": "array", "items": {"$ref": "#/definitions/SessionChoice"}}
            },
            "required": ["choices"]
        },
        "StartAlternativeRequest": {
            "type": "object",
            "properties": {
                "targetUid": {"type": "string"}
            },
            "required": ["targetUid"]
        },
        "RescheduleRequest": {
            "type": "object",
            "properties": {
                "uid": {"type": "string"}
            },
            "required": ["uid"]
        },
        "ImportEventEntry": {
            "type": "object",
            "properties": {
                "seriesName": {"type": "string"},
                "date": {"type": "string"},
                "startMinutes": {"type": "integer"},
                "endMinutes": {"type": "integer"},
                "location": {"type": "string"}
            },
            "required": ["seriesName", "date", "endMinutes"]
        },
        "ImportScheduleRequest": {
            "type": "object",
            "properties": {
                "events": {"type": "array", "items": {"$ref": "#/definitions/ImportEventEntry"}}
            },
            "required": ["events"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
