package events

import (
	"context"
	"time"
)

// Diagnosis is published after an upload is classified.
type Diagnosis struct {
	UploadID    string    `json:"upload_id"`
	Label       string    `json:"label"`
	DiseaseName string    `json:"disease_name"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

// Publisher delivers diagnosis events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Diagnosis) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, Diagnosis) error { return nil }
