package mq

import (
	"context"
	"encoding/json"
	"log"
	"siena/models"
	"siena/rdx"
)

const bookingEvents = "booking-events"

// Emit publishes a booking lifecycle event to Redis. Failures are logged and
// swallowed: event delivery is best-effort and must never fail a booking.
func Emit(ctx context.Context, eventName string, content models.Index) {
	content.Method = eventName
	data, err := json.Marshal(content)
	if err != nil {
		log.Printf("mq: marshal %s failed: %v", eventName, err)
		return
	}
	if err := rdx.Conn.Publish(ctx, bookingEvents, data).Err(); err != nil {
		log.Printf("mq: publish %s failed: %v", eventName, err)
	}
}

// StartNotificationWorker consumes booking events and records them for the
// back office. Runs until the context is cancelled.
func StartNotificationWorker(ctx context.Context) {
	sub := rdx.Conn.Subscribe(ctx, bookingEvents)
	ch := sub.Channel()

	go func() {
		defer sub.Close()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var evt models.Index
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Printf("mq: bad event payload: %v", err)
					continue
				}
				log.Printf("mq: %s %s/%s", evt.Method, evt.EntityType, evt.EntityId)
			case <-ctx.Done():
				return
			}
		}
	}()
}
