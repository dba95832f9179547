package helpers

// ApiResponse is the envelope every /api/v1 endpoint replies with.
type ApiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Page    int         `json:"page,omitempty"`
	Limit   int         `json:"limit,omitempty"`
	Total   int         `json:"total,omitempty"`
	HasMore bool        `json:"has_more,omitempty"`
}

func SuccessResponse(data interface{}, message string) ApiResponse {
	return ApiResponse{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func ErrorResponse(err string) ApiResponse {
	return ApiResponse{
		Success: false,
		Error:   err,
	}
}

// FlatError is the bare {"error": msg} body the checkout widget parses.
func FlatError(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// PaginatedResponse derives the 1-based page from an offset window.
func PaginatedResponse(data interface{}, offset, limit, total int) ApiResponse {
	page := 1
	if limit > 0 {
		page = offset/limit + 1
	}
	return ApiResponse{
		Success: true,
		Data:    data,
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasMore: offset+limit < total,
	}
}
