package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Subscriptions receive alerts for Office, or for every office when AllOffices is set.
type PushSubscription struct {
	Endpoint   string    `gorm:"primaryKey"`
	P256DH     string    `gorm:"column:p256dh;not null"`
	Auth       string    `gorm:"not null"`
	UserID     int64     `gorm:"index;not null"`
	Office     string    `gorm:"index;size:128"`
	AllOffices bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}
