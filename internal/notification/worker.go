package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/model"
	"github.com/parvatipole/Final-Coffee-Manager-proversion/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Payload is the JSON body delivered to subscribed browsers.
type Payload struct {
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Kind      model.AlertKind `json:"kind"`
	MachineID string          `json:"machineId"`
	Office    string          `json:"office"`
}

// NewPayload renders the notification shown for alert.
func NewPayload(alert model.MachineAlert) Payload {
	label := alert.MachineID
	if alert.Name != "" {
		label = fmt.Sprintf("%s (%s)", alert.Name, alert.MachineID)
	}

	title := "Coffee machine alert"
	switch alert.Kind {
	case model.AlertLowSupply:
		title = "Supplies running low"
	case model.AlertMaintenanceNeeded:
		title = "Maintenance needed"
	}

	body := label
	if alert.Detail != "" {
		body = fmt.Sprintf("%s: %s", label, alert.Detail)
	}

	return Payload{
		Title:     title,
		Body:      body,
		Kind:      alert.Kind,
		MachineID: alert.MachineID,
		Office:    alert.Office,
	}
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan model.MachineAlert
	subs    store.SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	log     *slog.Logger
}

// NewWorkerPool creates a new worker pool with a queue of queueSize alerts.
func NewWorkerPool(size, queueSize int, subs store.SubscriptionStore, webpushOptions *webpush.Options, log *slog.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize <= 0 {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.MachineAlert, queueSize),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		log:     log.With(slog.String("component", "notification")),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug("worker started", slog.Int("worker", id))
	for {
		select {
		case alert := <-wp.jobs:
			wp.log.Debug("worker processing alert",
				slog.Int("worker", id),
				slog.String("machine_id", alert.MachineID),
				slog.String("kind", string(alert.Kind)))
			wp.sendNotificationsForAlert(ctx, alert)
		case <-ctx.Done():
			wp.log.Debug("worker shutting down", slog.Int("worker", id))
			return
		}
	}
}

// Dispatch queues an alert for delivery. It never blocks; when the queue is
// full the alert is dropped.
func (wp *WorkerPool) Dispatch(alert model.MachineAlert) {
	select {
	case wp.jobs <- alert:
	default:
		wp.log.Warn("notification queue full, dropping alert",
			slog.String("machine_id", alert.MachineID),
			slog.String("kind", string(alert.Kind)))
	}
}

// sendNotificationsForAlert sends alert to every subscription covering the machine's office.
func (wp *WorkerPool) sendNotificationsForAlert(ctx context.Context, alert model.MachineAlert) {
	subscriptions, err := wp.subs.ForOffice(ctx, alert.Office)
	if err != nil {
		wp.log.Error("failed to fetch subscriptions", slog.String("office", alert.Office), slog.Any("error", err))
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(NewPayload(alert))
	if err != nil {
		wp.log.Error("failed to encode notification", slog.Any("error", err))
		return
	}

	wp.log.Info("sending notifications",
		slog.Int("count", len(subscriptions)),
		slog.String("machine_id", alert.MachineID))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Warn("failed to send notification", slog.String("endpoint", sub.Endpoint), slog.Any("error", err))
		return
	}
	defer resp.Body.Close()

	// Gone or unknown endpoints will never accept another push.
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		wp.log.Info("subscription expired, deleting", slog.String("endpoint", sub.Endpoint))
		if err := wp.subs.Delete(ctx, sub.Endpoint); err != nil {
			wp.log.Error("failed to delete expired subscription", slog.String("endpoint", sub.Endpoint), slog.Any("error", err))
		}
	}
}
