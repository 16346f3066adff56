package api

import (
	"net/http"
	"strings"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "CQ-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "CQ-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "CQ-DB-5002",
				Message: "A backing service is unavailable. Check local services and retry.",
			}
		case strings.Contains(raw, "workflow"):
			return apiError{
				Code:    "CQ-WF-5003",
				Message: "Could not start background processing. Check the worker and retry.",
			}
		default:
			return apiError{
				Code:    "CQ-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "CQ-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "CQ-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "CQ-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "unsupported file type"):
			msg = "Unsupported file type. Upload a .txt, .pdf or .docx file."
		case strings.Contains(raw, "no file provided"):
			msg = "No file was provided."
		case strings.Contains(raw, "query is required"):
			msg = "A query is required."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(raw, "collection") && strings.Contains(raw, "not found"):
			msg = "Collection was not found."
		}
	}

	return apiError{Code: code, Message: msg}
}
