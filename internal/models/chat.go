package models

import "time"

// ChatRecord is one prompt/response exchange of an authenticated user.
type ChatRecord struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}

// LLMInteraction is a prompt/response pair saved explicitly by a client.
type LLMInteraction struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
}
