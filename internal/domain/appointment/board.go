// Package appointment implements the doctor's appointment board with its
// accept/decline/cancel transitions and the patient's booking flow.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

// ErrNotOnBoard is returned when a transition succeeded but the appointment
// is missing from the re-fetched list.
var ErrNotOnBoard = errors.New("appointment no longer listed")

// Board is the doctor's appointment list view state: rows, per-row busy
// flags and a dismissible banner. Every mutation goes through the backend.
type Board struct {
	api    *apiclient.Client
	logger zerolog.Logger

	mu     sync.Mutex
	rows   []Appointment
	busy   map[int64]bool
	banner string
}

// NewBoard creates an empty board; call Refresh to load it.
func NewBoard(api *apiclient.Client, logger zerolog.Logger) *Board {
	return &Board{api: api, logger: logger, busy: make(map[int64]bool)}
}

// Refresh replaces the list with the backend's, normalizing every status.
func (b *Board) Refresh(ctx context.Context) error {
	var list []Appointment
	if err := b.api.Get(ctx, "/doctor/appointments", &list); err != nil {
		b.setBanner(err)
		return err
	}
	rows := make([]Appointment, len(list))
	for i, a := range list {
		rows[i] = a.normalized()
	}

	b.mu.Lock()
	b.rows = rows
	b.mu.Unlock()
	return nil
}

// Rows returns a copy of the current list.
func (b *Board) Rows() []Appointment {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Appointment, len(b.rows))
	copy(out, b.rows)
	return out
}

// Find returns the row with id.
func (b *Board) Find(id int64) (Appointment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexLocked(id)
	if i < 0 {
		return Appointment{}, false
	}
	return b.rows[i], true
}

// Busy reports whether a transition is in flight for id.
func (b *Board) Busy(id int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.busy[id]
}

// Banner returns the last failure message, or "".
func (b *Board) Banner() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.banner
}

// DismissBanner clears the banner.
func (b *Board) DismissBanner() {
	b.mu.Lock()
	b.banner = ""
	b.mu.Unlock()
}

func (b *Board) Accept(ctx context.Context, id int64) (*Appointment, error) {
	return b.Transition(ctx, id, ActionAccept)
}

func (b *Board) Decline(ctx context.Context, id int64) (*Appointment, error) {
	return b.Transition(ctx, id, ActionDecline)
}

func (b *Board) Cancel(ctx context.Context, id int64) (*Appointment, error) {
	return b.Transition(ctx, id, ActionCancel)
}

// Transition applies action to the appointment id. The response row
// replaces the matching local row; if it carries no usable id the whole
// list is re-fetched instead.
func (b *Board) Transition(ctx context.Context, id int64, action Action) (*Appointment, error) {
	route, ok := transitionPaths[action]
	if !ok {
		return nil, apiclient.Validationf("unknown action %q", action)
	}

	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return nil, apiclient.Validationf("appointment %d is not on the board, refresh and try again", id)
	}
	current := b.rows[i].Status
	if !Offers(current, action) {
		b.mu.Unlock()
		return nil, apiclient.Validationf("cannot %s an appointment that is %s", action, current)
	}
	if b.busy[id] {
		b.mu.Unlock()
		return nil, apiclient.Validationf("appointment %d already has a change in progress", id)
	}
	b.busy[id] = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.busy, id)
		b.mu.Unlock()
	}()

	var updated Appointment
	if err := b.api.Post(ctx, fmt.Sprintf("/doctor/appointments/%d/%s", id, route), nil, &updated); err != nil {
		b.setBanner(err)
		return nil, err
	}
	updated = updated.normalized()

	if b.replace(updated) {
		b.logger.Debug().Int64("appointment_id", id).Str("action", string(action)).Str("status", updated.Status).Msg("appointment row replaced")
		return &updated, nil
	}

	b.logger.Debug().Int64("appointment_id", id).Str("action", string(action)).Msg("transition response without usable id, refreshing")
	if err := b.Refresh(ctx); err != nil {
		return nil, err
	}
	if row, ok := b.Find(id); ok {
		return &row, nil
	}
	return nil, fmt.Errorf("appointment %d: %w", id, ErrNotOnBoard)
}

// replace swaps in a by id and reports whether a matching row existed.
func (b *Board) replace(a Appointment) bool {
	if a.ID <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexLocked(a.ID)
	if i < 0 {
		return false
	}
	b.rows[i] = a
	return true
}

func (b *Board) indexLocked(id int64) int {
	for i, r := range b.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) setBanner(err error) {
	b.mu.Lock()
	b.banner = apiclient.Message(err)
	b.mu.Unlock()
}
