package types

import "time"

const AlertStatusNew = "new"

type GuardAlert struct {
	ID        string    `json:"id"`
	GuardID   string    `json:"guardId"`
	GuardName string    `json:"guardName"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

type Announcement struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
