package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nordveldt/userbase/internal/domain/entity"
)

func TestDispatcherDeliversInOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string
	d.Subscribe(func(_ context.Context, _ UserEvent) error {
		order = append(order, "first")
		return nil
	})
	d.Subscribe(func(_ context.Context, _ UserEvent) error {
		order = append(order, "second")
		return nil
	})

	err := d.Notify(context.Background(), UserEvent{Name: UserCreated})

	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, order)
}

func TestDispatcherRunsAllHandlersAndReturnsFirstError(t *testing.T) {
	d := NewDispatcher()
	errFirst := errors.New("first failed")
	var secondRan bool
	d.Subscribe(func(_ context.Context, _ UserEvent) error { return errFirst })
	d.Subscribe(func(_ context.Context, _ UserEvent) error {
		secondRan = true
		return errors.New("second failed")
	})

	err := d.Notify(context.Background(), UserEvent{Name: UserDeleted})

	require.ErrorIs(t, err, errFirst)
	require.True(t, secondRan)
}

func TestDispatcherWithoutSubscribers(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Notify(context.Background(), UserEvent{Name: UserUpdated}))
}

func TestNewUserEvent(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	u := &entity.User{
		ID:       7,
		Realname: "Ada Lovelace",
		Role:     "admin",
		Email:    "ada@example.com",
		Password: "secret-hash",
		Created:  created,
		Updated:  created,
	}

	ev := NewUserEvent(UserCreated, u)

	require.Equal(t, UserCreated, ev.Name)
	require.NotEmpty(t, ev.ID)
	require.WithinDuration(t, time.Now().UTC(), ev.OccurredAt, time.Minute)
	require.Equal(t, int64(7), ev.User.ID)
	require.Equal(t, "Ada Lovelace", ev.User.Realname)
	require.Equal(t, "admin", ev.User.Role)
	require.Equal(t, created, ev.User.Created)

	// Distinct events get distinct ids.
	require.NotEqual(t, ev.ID, NewUserEvent(UserCreated, u).ID)
}
