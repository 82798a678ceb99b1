package serverutils

// Response is the JSON envelope for all API responses.
type Response[T any] struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    T                      `json:"data,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(message, code string, extra map[string]interface{}) Response[any] {
	return Response[any]{
		Success: false,
		Message: message,
		Code:    code,
		Extra:   extra,
	}
}
