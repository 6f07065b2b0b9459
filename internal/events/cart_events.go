package events

import "time"

type CartAbandoned struct {
	EventType string    `json:"eventType"`
	CartID    int64     `json:"cartId"`
	Timestamp time.Time `json:"timestamp"`
}

type CartDestroyed struct {
	EventType string    `json:"eventType"`
	CartID    int64     `json:"cartId"`
	Timestamp time.Time `json:"timestamp"`
}
