package workers

import (
	"context"
	"time"

	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/services"
)

// BookingWorker ages confirmed bookings past checkout into completed.
type BookingWorker struct {
	bookings *services.BookingService
	interval time.Duration
}

func NewBookingWorker(bookings *services.BookingService) *BookingWorker {
	return &BookingWorker{bookings: bookings, interval: 1 * time.Hour}
}

func (w *BookingWorker) Start(ctx context.Context) {
	go w.completeExpired(ctx)
}

func (w *BookingWorker) completeExpired(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Booking worker stopped")
			return
		case <-ticker.C:
			_, err := w.bookings.CompleteExpired(ctx)
			if err != nil {
				logger.WorkerLog("booking", "complete_expired", err)
			}
		}
	}
}
