package models

// APIResponse is the envelope for error, health and stats responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// AnalyzeResponse is returned by a successful critique request.
type AnalyzeResponse struct {
	Message         string          `json:"message"`
	FeedbackDetails *CritiqueResult `json:"feedbackDetails"`
}

const AnalyzeSuccessMessage = "Image analyzed successfully"
