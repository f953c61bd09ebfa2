package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/internal/repositories"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

// EventRecord is one audit entry before persistence.
type EventRecord struct {
	UserID     *uint
	EventType  models.EventType
	EntityType models.EntityType
	EntityID   string
	IP         string
	UserAgent  string
	Payload    map[string]interface{}
}

// EventService writes audit events through a buffered channel so request
// handling never waits on the event_logs table. Overflow drops the event
// with a warning instead of blocking.
type EventService struct {
	repo   repositories.EventRepository
	queue  chan models.EventLog
	done   chan struct{}
	closed chan struct{}
}

func NewEventService(repo repositories.EventRepository) *EventService {
	s := &EventService{
		repo:   repo,
		queue:  make(chan models.EventLog, 256),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
	go s.writer()
	return s
}

// Log queues one audit event.
func (s *EventService) Log(ctx context.Context, record EventRecord) {
	event := models.EventLog{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		UserID:     record.UserID,
		EventType:  record.EventType,
		EntityType: record.EntityType,
		EntityID:   record.EntityID,
		IP:         record.IP,
		UserAgent:  record.UserAgent,
	}
	if record.Payload != nil {
		event.Payload = datatypes.JSONMap(record.Payload)
	}

	select {
	case s.queue <- event:
	default:
		logger.CtxWarn(ctx, "event queue full, dropping event",
			"event_type", record.EventType,
			"entity_type", record.EntityType,
			"entity_id", record.EntityID,
		)
	}
}

func (s *EventService) writer() {
	defer close(s.closed)
	for {
		select {
		case event := <-s.queue:
			if err := s.repo.Create(&event); err != nil {
				logger.Error("event write failed", "event_type", event.EventType, "error", err.Error())
			}
		case <-s.done:
			// Drain what is left before shutting down.
			for {
				select {
				case event := <-s.queue:
					if err := s.repo.Create(&event); err != nil {
						logger.Error("event write failed", "event_type", event.EventType, "error", err.Error())
					}
				default:
					return
				}
			}
		}
	}
}

// Close flushes pending events and stops the writer.
func (s *EventService) Close() {
	close(s.done)
	<-s.closed
}

// List returns audit entries for the admin event log screen.
func (s *EventService) List(ctx context.Context, criteria repositories.EventFilter) ([]models.EventLog, int64, error) {
	events, total, err := s.repo.FindWithFilter(criteria)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return events, total, nil
}
