package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"docbook/pkg/logger"
	"docbook/pkg/model"
)

// Header keys attached to every published message.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
	HeaderTimestamp = "timestamp"
)

type KafkaPublisher struct {
	writer *kafka.Writer
	source string
	log    *logger.Logger
}

// NewKafkaPublisher builds a publisher for the appointment events topic.
// The hash balancer keeps all events of one doctor on one partition.
func NewKafkaPublisher(brokers []string, topic, source string, log *logger.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error(fmt.Sprintf("kafka: "+msg, args...))
		}),
	}

	return &KafkaPublisher{writer: writer, source: source, log: log}, nil
}

func (p *KafkaPublisher) AppointmentBooked(ctx context.Context, appt *model.Appointment) {
	p.publish(ctx, TypeAppointmentBooked, appt)
}

func (p *KafkaPublisher) AppointmentCancelled(ctx context.Context, appt *model.Appointment) {
	p.publish(ctx, TypeAppointmentCancelled, appt)
}

func (p *KafkaPublisher) AppointmentCompleted(ctx context.Context, appt *model.Appointment) {
	p.publish(ctx, TypeAppointmentCompleted, appt)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, appt *model.Appointment) {
	event := AppointmentEvent{
		EventID:       uuid.New().String(),
		Type:          eventType,
		AppointmentID: appt.ID,
		DoctorID:      appt.DocID,
		PatientID:     appt.UserID,
		SlotDate:      appt.SlotDate,
		SlotTime:      appt.SlotTime,
		Amount:        appt.Amount,
		Reason:        appt.CancellationReason,
		OccurredAt:    time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to encode appointment event", "type", eventType, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.DoctorID),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(event.EventID)},
			{Key: HeaderEventType, Value: []byte(eventType)},
			{Key: HeaderSource, Value: []byte(p.source)},
			{Key: HeaderTimestamp, Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}

	// Detach from the request deadline: a slow broker must not tie up the
	// response, and a cancelled request must not drop the event.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.log.Warn("Failed to publish appointment event",
			"type", eventType,
			"appointment_id", event.AppointmentID,
			"doctor_id", event.DoctorID,
			"error", err,
		)
	}
}
