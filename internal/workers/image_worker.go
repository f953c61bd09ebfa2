package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/services"
	"github.com/loxigl/Rent-Pro/internal/taskqueue"
)

// ImageWorker consumes image processing tasks. Permanent failures are
// acknowledged after marking the photo failed; transient ones are returned
// to asynq for retry, with the last attempt also marking the photo failed.
type ImageWorker struct {
	photos *services.PhotoService
}

func NewImageWorker(photos *services.PhotoService) *ImageWorker {
	return &ImageWorker{photos: photos}
}

// Register attaches the task handlers to the mux.
func (w *ImageWorker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(taskqueue.TypeProcessImage, w.HandleProcessImage)
	mux.HandleFunc(taskqueue.TypeBulkReprocess, w.HandleBulkReprocess)
}

func (w *ImageWorker) HandleProcessImage(ctx context.Context, t *asynq.Task) error {
	var payload taskqueue.ProcessImagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	taskID, _ := asynq.GetTaskID(ctx)
	ctx = logger.WithTaskID(ctx, taskID)
	logger.CtxInfo(ctx, "processing image", "photo_id", payload.PhotoID, "apartment_id", payload.ApartmentID)

	err := w.photos.ProcessUploaded(ctx, payload)
	if err == nil {
		return nil
	}

	var permanent *services.PermanentError
	if errors.As(err, &permanent) {
		logger.CtxWarn(ctx, "image rejected", "photo_id", payload.PhotoID, "error", permanent.Error())
		return fmt.Errorf("%v: %w", permanent, asynq.SkipRetry)
	}

	if lastAttempt(ctx) {
		w.photos.FailProcessing(ctx, payload.PhotoID, err.Error())
	}
	return err
}

func (w *ImageWorker) HandleBulkReprocess(ctx context.Context, t *asynq.Task) error {
	var payload taskqueue.BulkReprocessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	taskID, _ := asynq.GetTaskID(ctx)
	ctx = logger.WithTaskID(ctx, taskID)

	results, err := w.photos.BulkReprocess(ctx, payload)
	if err != nil {
		return err
	}

	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}
	logger.CtxInfo(ctx, "bulk reprocess finished",
		"apartment_id", payload.ApartmentID,
		"succeeded", ok,
		"failed", len(results)-ok,
	)
	return nil
}

func lastAttempt(ctx context.Context) bool {
	retried, _ := asynq.GetRetryCount(ctx)
	max, _ := asynq.GetMaxRetry(ctx)
	return retried >= max
}
