// Package rooms holds the Swagger document for the roomkey API. It mirrors
// the swag annotations in internal/rooms/http.
package rooms

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/roomkey"
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
        "/livez": {
            "get": {
                "description": "Liveness probe endpoint returning basic service health status, uptime, and version information\nThis endpoint always returns 200 OK if the service is running",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {
                        "description": "status, uptime, version",
                        "schema": {"$ref": "#/definitions/roomsdk.HealthResponse"}
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Readiness probe endpoint returning service health status and the store check",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {
                        "description": "status, uptime, version, checks",
                        "schema": {"$ref": "#/definitions/roomsdk.HealthResponse"}
                    },
                    "503": {
                        "description": "status, uptime, version, checks - service not ready",
                        "schema": {"$ref": "#/definitions/roomsdk.HealthResponse"}
                    }
                }
            }
        },
        "/v1/rooms": {
            "post": {
                "security": [{"AdminKey": []}],
                "description": "Create a room with one host and one guest invite. Each invite token can be redeemed exactly once.\nThe body is optional; omitted fields use the server defaults.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Rooms"],
                "summary": "Create Room",
                "parameters": [
                    {
                        "description": "TTL overrides",
                        "name": "request",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/roomsdk.CreateRoomRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "roomId, invites",
                        "schema": {"$ref": "#/definitions/roomsdk.CreateRoomResponse"}
                    },
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "401": {"description": "error, error_description", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "429": {"description": "error, error_description", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "500": {"description": "error, error_description", "schema": {"$ref": "#/definitions/roomsdk.APIError"}}
                }
            }
        },
        "/v1/rooms/{roomId}/join": {
            "post": {
                "description": "Redeem an invite token and receive meeting and attendee credentials.\nA token can be redeemed once; failed attempts do not consume it.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Rooms"],
                "summary": "Join Room",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Room ID",
                        "name": "roomId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Invite token",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/roomsdk.JoinRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "meeting, attendee, role",
                        "schema": {"$ref": "#/definitions/roomsdk.JoinResponse"}
                    },
                    "400": {"description": "error, error_description", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "401": {"description": "malformed_token, bad_signature, token_not_yet_valid, token_expired", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "403": {"description": "room_mismatch, invalid_invite", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "404": {"description": "room_not_active", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "409": {"description": "invite_already_used", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "410": {"description": "invite_expired", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "429": {"description": "rate_limit_exceeded", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "500": {"description": "server_error", "schema": {"$ref": "#/definitions/roomsdk.APIError"}},
                    "502": {"description": "provider_error", "schema": {"$ref": "#/definitions/roomsdk.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "roomsdk.APIError": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invite_already_used"},
                "error_description": {"type": "string", "example": "invite has already been used"}
            }
        },
        "roomsdk.Attendee": {
            "type": "object",
            "properties": {
                "AttendeeId": {"type": "string"},
                "ExternalUserId": {"type": "string"},
                "JoinToken": {"type": "string"}
            }
        },
        "roomsdk.CreateRoomRequest": {
            "type": "object",
            "properties": {
                "inviteMinutes": {"type": "integer", "example": 45},
                "roomTtlDays": {"type": "integer", "example": 1}
            }
        },
        "roomsdk.CreateRoomResponse": {
            "type": "object",
            "properties": {
                "invites": {"$ref": "#/definitions/roomsdk.RoomInvites"},
                "roomId": {"type": "string", "example": "01J9Z6N4W2C0Q8T1V3X5Y7Z9AA"}
            }
        },
        "roomsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "store": {"type": "string"}
            }
        },
        "roomsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"$ref": "#/definitions/roomsdk.HealthChecks"},
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "roomsdk.Invite": {
            "type": "object",
            "properties": {
                "exp": {"type": "integer", "example": 1700002700},
                "inviteId": {"type": "string", "example": "01J9Z6N4W2C0Q8T1V3X5Y7Z9AB"},
                "token": {"type": "string"}
            }
        },
        "roomsdk.JoinRequest": {
            "type": "object",
            "properties": {
                "t": {"type": "string"}
            }
        },
        "roomsdk.JoinResponse": {
            "type": "object",
            "properties": {
                "attendee": {"$ref": "#/definitions/roomsdk.Attendee"},
                "meeting": {"$ref": "#/definitions/roomsdk.Meeting"},
                "role": {"type": "string", "example": "host"}
            }
        },
        "roomsdk.MediaPlacement": {
            "type": "object",
            "properties": {
                "AudioFallbackUrl": {"type": "string"},
                "AudioHostUrl": {"type": "string"},
                "EventIngestionUrl": {"type": "string"},
                "ScreenDataUrl": {"type": "string"},
                "ScreenSharingUrl": {"type": "string"},
                "ScreenViewingUrl": {"type": "string"},
                "SignalingUrl": {"type": "string"},
                "TurnControlUrl": {"type": "string"}
            }
        },
        "roomsdk.Meeting": {
            "type": "object",
            "properties": {
                "ExternalMeetingId": {"type": "string"},
                "MediaPlacement": {"$ref": "#/definitions/roomsdk.MediaPlacement"},
                "MediaRegion": {"type": "string"},
                "MeetingId": {"type": "string"}
            }
        },
        "roomsdk.RoomInvites": {
            "type": "object",
            "properties": {
                "guest": {"$ref": "#/definitions/roomsdk.Invite"},
                "host": {"$ref": "#/definitions/roomsdk.Invite"}
            }
        }
    },
    "securityDefinitions": {
        "AdminKey": {
            "description": "Operator key for room creation.",
            "type": "apiKey",
            "name": "X-Admin-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "roomkey API",
	Description:      "Single-use, time-bounded invites to conferencing rooms.\n\nInvite tokens are HS256 compact JWTs. Each invite can be redeemed exactly once.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
