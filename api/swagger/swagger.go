package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance API",
        "description": "Face-recognition attendance pipeline for study groups",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Login and password management"},
        {"name": "Recognition", "description": "Roster loading and frame recognition"},
        {"name": "Attendance", "description": "Session submission"},
        {"name": "Reports", "description": "Attendance matrix and exports"},
        {"name": "Students", "description": "Student enrollment"},
        {"name": "Users", "description": "Account management"},
        {"name": "Groups", "description": "Study groups"},
        {"name": "Subjects", "description": "Subjects"},
        {"name": "Assignments", "description": "Teacher-to-subject links"}
    ],
    "paths": {
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
        "/auth/password": {
            "put": {
                "tags": ["Authentication"],
                "summary": "Change own password",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Weak password"},
                    "401": {"description": "Wrong current password"}
                }
            }
        },
        "/recognition/faces/load": {
            "post": {
                "tags": ["Recognition"],
                "summary": "Load a group roster into the caller's recognition slot",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoadFacesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Roster loaded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown group"}
                }
            }
        },
        "/recognition/recognize": {
            "post": {
                "tags": ["Recognition"],
                "summary": "Recognize faces in a base64 frame",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecognizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Recognition result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad image or no roster loaded"}
                }
            }
        },
        "/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Submit a reviewed attendance session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Subject not assigned to the caller"},
                    "500": {"description": "Persistence failure"}
                }
            }
        },
        "/reports/attendance": {
            "get": {
                "tags": ["Reports"],
                "summary": "Attendance matrix",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "teacher_id", "in": "query", "type": "string"},
                    {"name": "subject_id", "in": "query", "type": "string"},
                    {"name": "group_id", "in": "query", "type": "string"},
                    {"name": "date_from", "in": "query", "type": "string"},
                    {"name": "date_to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/attendance/export/csv": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export the matrix as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/reports/attendance/export/pdf": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export the matrix as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF file"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "group_id", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Enroll a student with a portrait photo",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "formData", "type": "integer", "required": true},
                    {"name": "fio", "in": "formData", "type": "string", "required": true},
                    {"name": "mail", "in": "formData", "type": "string", "required": true},
                    {"name": "birth_date", "in": "formData", "type": "string", "required": true},
                    {"name": "education_form", "in": "formData", "type": "string", "required": true},
                    {"name": "group_id", "in": "formData", "type": "string", "required": true},
                    {"name": "photo", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Enrolled"},
                    "409": {"description": "Duplicate card number or mail"}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Fetch one student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List accounts",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Users"],
                "summary": "Register a batch of accounts",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/RegisterUserRequest"}}}
                ],
                "responses": {
                    "201": {"description": "Per-entry results"}
                }
            }
        },
        "/users/{id}": {
            "delete": {
                "tags": ["Users"],
                "summary": "Delete an account",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Self-deletion is not allowed"}
                }
            }
        },
        "/groups": {
            "get": {
                "tags": ["Groups"],
                "summary": "List groups",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Groups"],
                "summary": "Create a group",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate name"}}
            }
        },
        "/groups/{id}": {
            "delete": {
                "tags": ["Groups"],
                "summary": "Delete a group and its students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create a subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate name"}}
            }
        },
        "/subjects/{id}": {
            "delete": {
                "tags": ["Subjects"],
                "summary": "Delete a subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List teacher assignments",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign a subject to a teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Already assigned"}}
            }
        },
        "/assignments/my": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List the caller's assignments",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/assignments/{id}": {
            "delete": {
                "tags": ["Assignments"],
                "summary": "Remove an assignment and its history",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {"204": {"description": "Deleted"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "login": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["login", "password"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "current_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["current_password", "new_password"]
        },
        "LoadFacesRequest": {
            "type": "object",
            "properties": {
                "group": {"type": "string"}
            },
            "required": ["group"]
        },
        "RecognizeRequest": {
            "type": "object",
            "properties": {
                "image": {"type": "string", "description": "Base64 frame, with or without a data-URL prefix"}
            },
            "required": ["image"]
        },
        "SubmitAttendanceRequest": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "group_id": {"type": "string"},
                "students": {"type": "array", "items": {"$ref": "#/definitions/SubmittedStudent"}}
            },
            "required": ["subject_id", "group_id"]
        },
        "SubmittedStudent": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "attended": {"type": "boolean"}
            },
            "required": ["id"]
        },
        "RegisterUserRequest": {
            "type": "object",
            "properties": {
                "fio": {"type": "string"},
                "login": {"type": "string"},
                "password": {"type": "string"},
                "mail": {"type": "string"},
                "birth_date": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "teacher"]}
            },
            "required": ["fio", "login", "password", "mail", "role"]
        },
        "NameRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            },
            "required": ["name"]
        },
        "CreateAssignmentRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "subject_id": {"type": "string"}
            },
            "required": ["user_id", "subject_id"]
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
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "message": {"type": "string"},
                "error": {"$ref": "#/definitions/APIError"}
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
