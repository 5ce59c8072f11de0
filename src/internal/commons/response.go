package commons

// Response is the JSON envelope of every ledger API reply.
type Response[T any] struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Data      *T       `json:"data,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

// RequestScoped is implemented by envelopes that can carry the id of the request they answer.
type RequestScoped interface {
	WithRequestID(id string) any
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

func (r Response[T]) WithRequestID(id string) any {
	r.RequestID = id
	return r
}
