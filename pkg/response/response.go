// Package response defines the JSON envelope shared by every API endpoint:
// {"success": bool, "message": string, "data": any}.
package response

// ServerErrorResponse is written for every unexpected failure.
var ServerErrorResponse = Response{
	Success: false,
	Message: "Internal server error",
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// SuccessResponse builds a successful envelope. Only the first data value is used.
func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Success: true,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

func ErrorResponse(msg string) Response {
	return Response{
		Success: false,
		Message: msg,
	}
}

// PageResponse is the envelope for paginated listings. Data is always
// present, as an empty array when the page has no items.
type PageResponse struct {
	Success     bool  `json:"success"`
	Count       int   `json:"count"`
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Data        any   `json:"data"`
}

func NewPageResponse[T any](items []T, totalCount int64, totalPages, currentPage int) PageResponse {
	if items == nil {
		items = []T{}
	}

	return PageResponse{
		Success:     true,
		Count:       len(items),
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		Data:        items,
	}
}
