// Package docs registers the OpenAPI document served under /swagger.
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
        "/api/analyze": {
            "post": {
                "description": "Accepts JSON or multipart/form-data. The analysis runs in the background; poll /api/status/{id}.",
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Submit a claim and/or media URL for fact-checking",
                "parameters": [
                    {"description": "claim and/or mediaUrl; analysisId is optional", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/analyzeDTO"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/analyzeResp"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apiError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/apiError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apiError"}}
                }
            }
        },
        "/api/status/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Get analysis progress",
                "parameters": [{"type": "string", "description": "analysis id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/statusResp"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apiError"}}
                }
            }
        },
        "/api/result/{id}": {
            "get": {
                "description": "200 with the verdict once complete; 202 with status, progress and message otherwise.",
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Get the verdict of a finished analysis",
                "parameters": [{"type": "string", "description": "analysis id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.VerdictResult"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/pendingResp"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apiError"}}
                }
            }
        },
        "/api/media": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Run media authenticity analysis synchronously",
                "parameters": [{"description": "media URL and optional platform", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/mediaDTO"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.MediaAnalysis"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apiError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/apiError"}}
                }
            }
        },
        "/api/ocr": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Run OCR on an image URL synchronously",
                "parameters": [{"description": "media URL", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/mediaDTO"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.TextExtraction"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apiError"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/apiError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/apiError"}}
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Service health and configured capabilities",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/healthResp"}}
                }
            }
        }
    },
    "definitions": {
        "apiError": {"type": "object", "properties": {"message": {"type": "string"}}},
        "analyzeDTO": {"type": "object", "properties": {
            "claim": {"type": "string"}, "mediaUrl": {"type": "string"},
            "platform": {"type": "string"}, "analysisId": {"type": "string"}
        }},
        "analyzeResp": {"type": "object", "properties": {"analysisId": {"type": "string"}, "status": {"type": "string"}}},
        "statusResp": {"type": "object", "properties": {
            "status": {"type": "string", "enum": ["processing", "complete", "error"]},
            "progress": {"type": "integer"}, "error": {"type": "string"}
        }},
        "pendingResp": {"type": "object", "properties": {
            "status": {"type": "string"}, "progress": {"type": "integer"}, "message": {"type": "string"}
        }},
        "mediaDTO": {"type": "object", "properties": {"mediaUrl": {"type": "string"}, "platform": {"type": "string"}}},
        "healthResp": {"type": "object", "properties": {
            "status": {"type": "string"}, "service": {"type": "string"}, "version": {"type": "string"},
            "capabilities": {"type": "array", "items": {"type": "string"}},
            "credentialsConfigured": {"type": "boolean"}, "modelKeyConfigured": {"type": "boolean"},
            "store": {"type": "string"}, "queue": {"type": "string"}
        }},
        "entity.Source": {"type": "object", "properties": {
            "title": {"type": "string"}, "url": {"type": "string"},
            "stance": {"type": "string", "enum": ["supports", "contradicts", "neutral", "referenced"]},
            "tier": {"type": "integer"}, "tierLabel": {"type": "string"}
        }},
        "entity.ConfidenceBreakdown": {"type": "object", "properties": {
            "sourceAgreement": {"type": "number"}, "sourceQuality": {"type": "number"},
            "aiConfidence": {"type": "number"}, "mediaAuthenticity": {"type": "number"}
        }},
        "entity.MediaAnalysis": {"type": "object", "properties": {
            "type": {"type": "string", "enum": ["image", "video", "audio", "unknown"]},
            "authenticityScore": {"type": "number"}, "verdict": {}, "scores": {}, "ensemble_scores": {},
            "model": {}, "version": {}, "notes": {"type": "string"}
        }},
        "entity.TextExtraction": {"type": "object", "properties": {
            "text": {"type": "string"}, "fields": {"type": "object"}
        }},
        "entity.VerdictResult": {"type": "object", "properties": {
            "claim": {"type": "string"}, "originalClaim": {"type": "string"},
            "verdict": {"type": "string", "enum": ["TRUE", "FALSE", "MOSTLY_TRUE", "MOSTLY_FALSE", "MISLEADING", "UNVERIFIED", "SATIRE", "OPINION"]},
            "explanation": {"type": "string"}, "confidence": {"type": "number"},
            "confidenceBreakdown": {"$ref": "#/definitions/entity.ConfidenceBreakdown"},
            "recommendation": {"type": "string", "enum": ["HIGH_CONFIDENCE", "NEEDS_REVIEW", "LOW_CONFIDENCE"]},
            "sources": {"type": "array", "items": {"$ref": "#/definitions/entity.Source"}},
            "searchQueries": {"type": "array", "items": {"type": "string"}},
            "mediaAnalysis": {"$ref": "#/definitions/entity.MediaAnalysis"},
            "textExtraction": {"$ref": "#/definitions/entity.TextExtraction"},
            "analyzedAt": {"type": "string", "format": "date-time"}
        }}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Kaeva fact-check API",
	Description:      "Claim and media fact-checking with search-grounded verdicts and source-tier confidence scoring.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
