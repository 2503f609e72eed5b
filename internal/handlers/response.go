package handlers

import (
	"time"

	"github.com/umalmyha/customers-kyc/internal/model"
)

// response is envelope of every successful response
type response struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       any               `json:"data,omitempty"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// errorResponse is envelope of every failed response
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(msg string, data any) *response {
	return &response{
		Success:   true,
		Message:   msg,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func paginated(msg string, page *model.CustomerPage) *response {
	res := ok(msg, page.Items)
	res.Pagination = &page.Pagination
	return res
}
