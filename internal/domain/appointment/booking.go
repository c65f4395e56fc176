package appointment

import (
	"context"
	"time"

	"github.com/akith22/DiagNote-sub000/internal/domain/availability"
	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

// Booking is the patient side: doctor directory, own appointments, booking.
type Booking struct {
	api *apiclient.Client
	now func() time.Time
}

// BookingOption configures a Booking.
type BookingOption func(*Booking)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) BookingOption {
	return func(b *Booking) { b.now = now }
}

func NewBooking(api *apiclient.Client, opts ...BookingOption) *Booking {
	b := &Booking{api: api, now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Doctors lists doctors available for booking.
func (b *Booking) Doctors(ctx context.Context) ([]Doctor, error) {
	var list []Doctor
	if err := b.api.Get(ctx, "/patient/doctors", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// FindDoctor returns the directory entry for id.
func (b *Booking) FindDoctor(ctx context.Context, id int64) (*Doctor, error) {
	list, err := b.Doctors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].DoctorID == id {
			return &list[i], nil
		}
	}
	return nil, apiclient.Validationf("doctor %d not found", id)
}

// Mine lists the patient's appointments with normalized statuses.
func (b *Booking) Mine(ctx context.Context) ([]Appointment, error) {
	var list []Appointment
	if err := b.api.Get(ctx, "/patient/appointments", &list); err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = list[i].normalized()
	}
	return list, nil
}

// Book requests an appointment at the given time after checking it against
// the doctor's declared availability.
func (b *Booking) Book(ctx context.Context, doctor Doctor, at time.Time) (*Appointment, error) {
	if doctor.DoctorID <= 0 {
		return nil, apiclient.Validation("a doctor must be selected")
	}
	if !at.After(b.now()) {
		return nil, apiclient.Validation("appointment time must be in the future")
	}
	filter := availability.ParseList(doctor.AvailableTimes)
	if !filter.IsDateSelectable(at) {
		return nil, apiclient.Validationf("%s is not available on %s", doctor.Name, at.Weekday())
	}
	if !filter.IsTimeSelectable(at, at) {
		return nil, apiclient.Validationf("%s is not available at %s on %s", doctor.Name, at.Format("15:04"), at.Weekday())
	}

	var created Appointment
	req := BookingRequest{DoctorID: doctor.DoctorID, Date: FormatDate(at)}
	if err := b.api.Post(ctx, "/patient/appointments", req, &created); err != nil {
		return nil, err
	}
	created = created.normalized()
	return &created, nil
}
