package models

// Setting is one row of the key-value settings store.
type Setting struct {
	Key         string `json:"setting_key"`
	Value       string `json:"setting_value"`
	Description string `json:"description,omitempty"`
}

type UpdateSettingRequest struct {
	Value string `json:"value"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
