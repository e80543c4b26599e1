package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Therapy Scheduler API",
        "description": "Schedule generation, conflict checks and route optimisation for therapy sessions",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scheduler", "description": "Candidate generation and stored proposals"},
        {"name": "Sessions", "description": "Conflict detection and alternative times"},
        {"name": "Routes", "description": "Travel route optimisation"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/schedules/generate": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Generate a schedule proposal from inline entities",
                "parameters": [
                    {"name": "async", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/generate/snapshot": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Generate a schedule proposal from stored entities",
                "parameters": [
                    {"name": "async", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SnapshotGenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Storage not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/proposals/{id}": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Fetch a stored proposal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Ready or failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/cache": {
            "delete": {
                "tags": ["Scheduler"],
                "summary": "Drop cached generation results",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/proposals/{id}/export": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Download a proposal as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Attachment", "schema": {"type": "file"}},
                    "409": {"description": "Proposal not ready", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/conflicts": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Check a proposed or edited session for conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/alternatives": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Suggest conflict-free times near a proposed session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/routes/optimize": {
            "post": {
                "tags": ["Routes"],
                "summary": "Order stops into a short closed tour",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RouteOptimizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/routes/therapists/{id}": {
            "get": {
                "tags": ["Routes"],
                "summary": "Optimize a therapist's stored sessions for one day",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "seed", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown therapist", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Scheduler metrics summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TimeWindow": {
            "type": "object",
            "properties": {
                "start": {"type": "string", "example": "09:00"},
                "end": {"type": "string", "example": "17:00"}
            }
        },
        "WeeklyAvailability": {
            "type": "object",
            "additionalProperties": {"$ref": "#/definitions/TimeWindow"}
        },
        "Coordinate": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number"},
                "longitude": {"type": "number"},
                "address": {"type": "string"}
            }
        },
        "Therapist": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "serviceTypes": {"type": "array", "items": {"type": "string"}},
                "specialties": {"type": "array", "items": {"type": "string"}},
                "languages": {"type": "array", "items": {"type": "string"}},
                "yearsExperience": {"type": "integer"},
                "availability": {"$ref": "#/definitions/WeeklyAvailability"},
                "weeklyHoursMin": {"type": "integer"},
                "weeklyHoursMax": {"type": "integer"},
                "maxDailyHours": {"type": "integer"},
                "location": {"$ref": "#/definitions/Coordinate"},
                "serviceRadiusKm": {"type": "number"}
            },
            "required": ["id"]
        },
        "Client": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "servicePreferences": {"type": "array", "items": {"type": "string"}},
                "diagnoses": {"type": "array", "items": {"type": "string"}},
                "preferredLanguage": {"type": "string"},
                "availability": {"$ref": "#/definitions/WeeklyAvailability"},
                "authorizedHours": {"type": "number"},
                "address": {"type": "string"},
                "location": {"$ref": "#/definitions/Coordinate"},
                "preferredRadiusKm": {"type": "number"}
            },
            "required": ["id"]
        },
        "Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "therapistId": {"type": "string"},
                "clientId": {"type": "string"},
                "startTime": {"type": "string", "format": "date-time"},
                "endTime": {"type": "string", "format": "date-time"},
                "status": {"type": "string", "enum": ["scheduled", "completed", "cancelled", "no-show"]},
                "notes": {"type": "string"}
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "properties": {
                "therapists": {"type": "array", "items": {"$ref": "#/definitions/Therapist"}},
                "clients": {"type": "array", "items": {"$ref": "#/definitions/Client"}},
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/Session"}},
                "startDate": {"type": "string", "format": "date"},
                "endDate": {"type": "string", "format": "date"},
                "durationMinutes": {"type": "integer"}
            },
            "required": ["startDate", "endDate"]
        },
        "SnapshotGenerateRequest": {
            "type": "object",
            "properties": {
                "startDate": {"type": "string", "format": "date"},
                "endDate": {"type": "string", "format": "date"},
                "durationMinutes": {"type": "integer"},
                "therapistIds": {"type": "array", "items": {"type": "string"}},
                "clientIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["startDate", "endDate"]
        },
        "ProposedSession": {
            "type": "object",
            "properties": {
                "therapistId": {"type": "string"},
                "clientId": {"type": "string"},
                "startTime": {"type": "string", "format": "date-time"},
                "endTime": {"type": "string", "format": "date-time"}
            },
            "required": ["therapistId", "clientId", "startTime", "endTime"]
        },
        "ConflictCheckRequest": {
            "type": "object",
            "properties": {
                "session": {"$ref": "#/definitions/ProposedSession"},
                "therapist": {"$ref": "#/definitions/Therapist"},
                "client": {"$ref": "#/definitions/Client"},
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/Session"}},
                "excludeSessionId": {"type": "string"}
            }
        },
        "Location": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "string"},
                "coordinate": {"$ref": "#/definitions/Coordinate"}
            }
        },
        "RouteOptimizeRequest": {
            "type": "object",
            "properties": {
                "start": {"$ref": "#/definitions/Location"},
                "stops": {"type": "array", "maxItems": 200, "items": {"$ref": "#/definitions/Location"}},
                "seed": {"type": "integer"}
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
