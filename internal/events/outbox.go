package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event is a domain event bound for the giftcard_events outbox table.
// DedupeKey makes redelivered writes (webhook retries, scheduler re-runs)
// collapse to one row per company.
type Event struct {
	CompanyID snowflake.ID
	Type      string
	Payload   map[string]any
	DedupeKey string
}

// Outbox writes events in the same transaction as the state change that
// produced them. A separate publisher drains the table.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish stores an event outside any caller transaction.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event inside the caller's transaction so the event and
// the state change commit or roll back together.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return errors.New("outbox_unavailable")
	}
	name := strings.TrimSpace(event.Type)
	switch {
	case event.CompanyID == 0:
		return errors.New("invalid_company_id")
	case name == "":
		return errors.New("missing_event_type")
	}

	payload := make(datatypes.JSONMap, len(event.Payload))
	for key, value := range event.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	// NULL dedupe keys never conflict with each other, so events without a
	// key are always inserted.
	var dedupe any
	if key := strings.TrimSpace(event.DedupeKey); key != "" {
		dedupe = key
	}

	return db.WithContext(ctx).Exec(
		`INSERT INTO giftcard_events (id, company_id, event_type, payload, dedupe_key, published, created_at)
		 VALUES (?, ?, ?, ?, ?, false, ?)
		 ON CONFLICT (company_id, dedupe_key) DO NOTHING`,
		o.genID.Generate(),
		event.CompanyID,
		name,
		payload,
		dedupe,
		time.Now().UTC(),
	).Error
}
