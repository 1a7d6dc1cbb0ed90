package domain

// ErrorType selects a canned failure message for a mock response.
type ErrorType string

const (
	ErrorTypeNone ErrorType = ""
	ErrorTypeDB   ErrorType = "db"
	ErrorTypeAuth ErrorType = "auth"
)

// MockDescriptor is derived entirely from request query parameters.
type MockDescriptor struct {
	StatusCode         int
	DelayMs            int
	BodySizeMultiplier int
	ErrorType          ErrorType
}

// MockPayload is the JSON body of a generic mock response.
type MockPayload struct {
	Success   bool   `json:"success"`
	Timestamp int64  `json:"timestamp"`
	Route     string `json:"route"`
	Message   string `json:"message"`
	LargeData string `json:"largeData,omitempty"`
}

// ControlResult is a fixed-behaviour control endpoint response.
type ControlResult struct {
	StatusCode int
	// Location is set for redirects; Body is ignored then.
	Location string
	Body     map[string]string
}

// LoginRequest carries form-encoded or JSON login credentials.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}
