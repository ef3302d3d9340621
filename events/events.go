package events

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"procur/logger"
	"procur/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const emitTimeout = 5 * time.Second

// Emitter is the best-effort audit trail. Emit writes an audit_events row
// and, when redis is configured, publishes the event on a channel. Both
// writes are bounded and failures are logged, never returned: an audit miss
// must not disturb committed ledger state.
type Emitter struct {
	db      *gorm.DB
	redis   *redis.Client
	channel string
}

func NewEmitter(db *gorm.DB) *Emitter {
	e := &Emitter{db: db, channel: "procur.ledger.events"}

	if url := os.Getenv("REDIS_URL"); url != "" {
		opt, err := redis.ParseURL(url)
		if err != nil {
			logger.Log.WithError(err).Warn("invalid REDIS_URL, audit events will not be published")
		} else {
			e.redis = redis.NewClient(opt)
		}
	}
	return e
}

func (e *Emitter) Emit(eventType string, payload map[string]any) {
	go e.emit(eventType, payload)
}

func (e *Emitter) emit(eventType string, payload map[string]any) {
	eventID := uuid.New().String()
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Log.WithError(err).Warnf("audit event %s payload not serializable", eventType)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
	defer cancel()

	if e.db != nil {
		row := models.AuditEvent{EventID: eventID, Type: eventType, Payload: raw}
		if err := e.db.WithContext(ctx).Create(&row).Error; err != nil {
			logger.Log.WithError(err).Warnf("failed to record audit event %s", eventType)
		}
	}

	if e.redis != nil {
		msg, _ := json.Marshal(map[string]any{
			"event_id": eventID,
			"type":     eventType,
			"payload":  payload,
			"at":       time.Now().UTC().Format(time.RFC3339),
		})
		if err := e.redis.Publish(ctx, e.channel, msg).Err(); err != nil {
			logger.Log.WithError(err).Warnf("failed to publish audit event %s", eventType)
		}
	}
}

// Close releases the redis connection, if any.
func (e *Emitter) Close() {
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			logger.Log.WithError(err).Warn("error closing redis connection")
		}
	}
}
