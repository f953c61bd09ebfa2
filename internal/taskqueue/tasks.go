package taskqueue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeProcessImage  = "image:process"
	TypeBulkReprocess = "image:bulk_reprocess"

	QueueImages = "images"
)

// ProcessImagePayload carries one uploaded photo to the worker. Data is the
// raw upload; all state transitions happen against PhotoID.
type ProcessImagePayload struct {
	PhotoID      string `json:"photo_id"`
	ApartmentID  uint   `json:"apartment_id"`
	DeclaredType string `json:"declared_type"`
	Data         []byte `json:"data"`
}

// BulkReprocessPayload asks the worker to rebuild variants for an apartment.
type BulkReprocessPayload struct {
	ApartmentID uint `json:"apartment_id"`
	MaxImages   int  `json:"max_images"`
}

func NewProcessImageTask(p ProcessImagePayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal process-image payload: %w", err)
	}
	return asynq.NewTask(TypeProcessImage, payload), nil
}

func NewBulkReprocessTask(p BulkReprocessPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal bulk-reprocess payload: %w", err)
	}
	return asynq.NewTask(TypeBulkReprocess, payload), nil
}
