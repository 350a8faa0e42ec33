package service

import (
	"context"
	"errors"
	"strings"
	"time"

	doctorserrors "docbook/internal/doctors/errors"
	"docbook/pkg/config"
	"docbook/pkg/datekey"
	apperrors "docbook/pkg/errors"
	"docbook/pkg/model"
)

type AvailabilityService interface {
	ListSlots(ctx context.Context, doctorID string) ([]model.DaySlots, error)
}

type availabilityService struct {
	doctors doctorSource
	cfg     *config.Config
	now     func() time.Time
}

func NewAvailabilityService(doctors doctorSource, cfg *config.Config) AvailabilityService {
	return &availabilityService{
		doctors: doctors,
		cfg:     cfg,
		now:     time.Now,
	}
}

// ListSlots builds the bookable grid for the coming window: one entry per
// day, half-hour slots between the configured opening hours. Today's list
// starts at the next upcoming half hour; slots the doctor already holds in
// the ledger are marked booked.
func (s *availabilityService) ListSlots(ctx context.Context, doctorID string) ([]model.DaySlots, error) {
	if doctorID == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	doctor, err := s.doctors.FindByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, doctorserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Doctor", doctorID)
		}
		if errors.Is(err, doctorserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid doctor ID format")
		}
		return nil, storeFailure("Failed to load doctor", err)
	}

	now := s.now()
	days := make([]model.DaySlots, 0, s.cfg.BookingWindowDays)

	for i := 0; i < s.cfg.BookingWindowDays; i++ {
		day := now.AddDate(0, 0, i)
		open := time.Date(day.Year(), day.Month(), day.Day(), s.cfg.SlotDayStartHour, 0, 0, 0, day.Location())
		close := time.Date(day.Year(), day.Month(), day.Day(), s.cfg.SlotDayEndHour, 0, 0, 0, day.Location())

		first := open
		if i == 0 {
			if cursor := datekey.NextHalfHour(now); cursor.After(first) {
				first = cursor
			}
		}

		key := datekey.Format(day)
		var slots []model.Slot
		for t := first; t.Before(close); t = t.Add(30 * time.Minute) {
			slotTime := t.Format("15:04")
			slots = append(slots, model.Slot{
				Time:     slotTime,
				IsBooked: doctor.HasSlot(key, slotTime),
			})
		}

		days = append(days, model.DaySlots{
			DateKey: key,
			Weekday: strings.ToUpper(day.Format("Mon")),
			Slots:   slots,
		})
	}

	return days, nil
}
