package groq

import "encoding/json"

// TranscriptionRequest carries one audio payload and its decoding options.
type TranscriptionRequest struct {
	Audio                  []byte
	Filename               string
	Model                  string
	Prompt                 string
	Language               string
	ResponseFormat         string
	Temperature            float64
	TimestampGranularities []string
}

// TranscriptionResponse is the verbose_json response shape. Only Text is
// consumed downstream; segments are decoded for completeness.
type TranscriptionResponse struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// Segment is one timestamped span of the transcript.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ErrorResponse is the API error envelope.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError contains error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// ParseErrorResponse attempts to parse an error response body. Returns nil
// when the body is not the error envelope.
func ParseErrorResponse(data []byte) *APIError {
	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return nil
	}
	return errResp.Error
}
