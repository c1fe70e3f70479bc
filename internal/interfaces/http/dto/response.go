package dto

import "time"

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes a single invalid request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta describes where a report result came from
type Meta struct {
	Source    string `json:"source"`
	Count     int    `json:"count"`
	Cached    bool   `json:"cached,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewSuccessResponseWithMeta creates a success response carrying result metadata
func NewSuccessResponseWithMeta(data any, meta Meta) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta:    &meta,
	}
}

// NewErrorResponse creates an error response; legacy domain codes are normalized
func NewErrorResponse(code, message string) Response {
	return NewErrorResponseWithRequestID(code, message, "")
}

// NewErrorResponseWithRequestID creates an error response tagged with the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      NormalizeErrorCode(code),
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now().UTC(),
		},
	}
}

// NewValidationErrorResponse creates a 400 response listing the invalid fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}

// OrdersQuery selects orders by card type
type OrdersQuery struct {
	CardType string `form:"card_type" binding:"required"`
}

// ColorQuery selects the color for the color check
type ColorQuery struct {
	Color string `form:"color" binding:"required"`
}

// CardCountsQuery selects how duplicate customer emails are resolved
type CardCountsQuery struct {
	Policy string `form:"policy" binding:"omitempty,oneof=keep_last keep_first fail"`
}

// AveragePriceQuery selects the card for the average price report
type AveragePriceQuery struct {
	CardNumber string `form:"card_number" binding:"required,max=32"`
}

// SummaryQuery selects the parameterized reports included in a summary
type SummaryQuery struct {
	CardType   string `form:"card_type"`
	Color      string `form:"color"`
	CardNumber string `form:"card_number" binding:"omitempty,max=32"`
}
