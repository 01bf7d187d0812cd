package services

import (
	"context"
	"encoding/json"
	"testing"

	"socialpush/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(pusher *fakePusher, users ...string) *Router {
	n := newTestNotifier(tokensFor(users...), pusher)
	friendships := &fakeFriendships{pairs: map[[2]string]bool{}}
	return NewRouter(
		NewFriendRequestHandler(n, friendships, nil),
		NewAttendanceClassifier(n, nil, AttendanceFirst),
		NewFieldChangeClassifier(n),
		NewPlanDeletionHandler(n),
	)
}

func TestDecodeChangeEventAssignsID(t *testing.T) {
	ev, err := DecodeChangeEvent([]byte(`{"entity":"plan","type":"deleted","before":{"planId":"p1"}}`))
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "plan.deleted", ev.RoutingKey())

	ev, err = DecodeChangeEvent([]byte(`{"id":"e-1","entity":"friend_request","type":"created"}`))
	require.NoError(t, err)
	assert.Equal(t, "e-1", ev.ID)
}

func TestDecodeChangeEventMalformed(t *testing.T) {
	_, err := DecodeChangeEvent([]byte(`{"entity":`))
	assert.Error(t, err)
}

func TestRouteFriendRequestCreated(t *testing.T) {
	pusher := newFakePusher()
	r := newTestRouter(pusher, "bob")

	report, err := r.Route(context.Background(), &ChangeEvent{
		Entity: EntityFriendRequest,
		Type:   ChangeCreated,
		After:  json.RawMessage(`{"from":"alice","to":"bob","status":"pending","name":"Alice"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	require.Len(t, pusher.Calls(), 1)
	assert.Equal(t, models.KindFriendRequest, pusher.Calls()[0].Msg.Kind)
}

func TestRouteFriendRequestDeletedUsesBefore(t *testing.T) {
	pusher := newFakePusher()
	r := newTestRouter(pusher, "alice")

	_, err := r.Route(context.Background(), &ChangeEvent{
		Entity: EntityFriendRequest,
		Type:   ChangeDeleted,
		Before: json.RawMessage(`{"from":"alice","to":"bob","status":"sent"}`),
	})

	require.NoError(t, err)
	require.Len(t, pusher.Calls(), 1)
	assert.Equal(t, models.KindFriendRejected, pusher.Calls()[0].Msg.Kind)
}

func TestRoutePlanUpdatedRunsBothClassifiers(t *testing.T) {
	pusher := newFakePusher()
	r := newTestRouter(pusher, "H", "A", "B")

	report, err := r.Route(context.Background(), &ChangeEvent{
		Entity: EntityPlan,
		Type:   ChangeUpdated,
		Before: json.RawMessage(`{"planId":"p1","hostId":"H","acceptedParticipants":["A"],"date":"D1","dateIsPoll":true}`),
		After:  json.RawMessage(`{"planId":"p1","hostId":"H","acceptedParticipants":["A","B"],"date":"D2","dateIsPoll":false}`),
	})

	require.NoError(t, err)
	// хосту о новом участнике, гостям A и B о дате
	assert.Equal(t, 3, report.Sent)
	assert.ElementsMatch(t, []models.PushTarget{tokenFor("H"), tokenFor("A"), tokenFor("B")}, pusher.Targets())
}

func TestRoutePlanDeleted(t *testing.T) {
	pusher := newFakePusher()
	r := newTestRouter(pusher, "H", "X", "Y")

	_, err := r.Route(context.Background(), &ChangeEvent{
		Entity: EntityPlan,
		Type:   ChangeDeleted,
		Before: json.RawMessage(`{"planId":"p1","hostId":"H","title":"Asado","acceptedParticipants":["H","X","Y"]}`),
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []models.PushTarget{tokenFor("X"), tokenFor("Y")}, pusher.Targets())
}

func TestRouteMissingSnapshotIsNoop(t *testing.T) {
	pusher := newFakePusher()
	r := newTestRouter(pusher, "H", "X")

	events := []*ChangeEvent{
		{Entity: EntityFriendRequest, Type: ChangeCreated},
		{Entity: EntityFriendRequest, Type: ChangeDeleted, Before: json.RawMessage(`null`)},
		{Entity: EntityPlan, Type: ChangeUpdated, After: json.RawMessage(`{"hostId":"H"}`)},
		{Entity: EntityPlan, Type: ChangeDeleted},
	}
	for _, ev := range events {
		report, err := r.Route(context.Background(), ev)
		assert.NoError(t, err, ev.RoutingKey())
		assert.Equal(t, Report{}, report)
	}
	assert.Empty(t, pusher.Calls())
}

func TestRouteIgnoredTypes(t *testing.T) {
	pusher := newFakePusher()
	r := newTestRouter(pusher, "H", "X")

	for _, ev := range []*ChangeEvent{
		{Entity: EntityFriendRequest, Type: ChangeUpdated, After: json.RawMessage(`{"from":"X","to":"H","status":"pending"}`)},
		{Entity: EntityPlan, Type: ChangeCreated, After: json.RawMessage(`{"hostId":"H","acceptedParticipants":["X"]}`)},
	} {
		_, err := r.Route(context.Background(), ev)
		assert.NoError(t, err)
	}
	assert.Empty(t, pusher.Calls())
}

func TestRouteUnknownEvent(t *testing.T) {
	r := newTestRouter(newFakePusher())

	_, err := r.Route(context.Background(), &ChangeEvent{Entity: "comment", Type: ChangeCreated})
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = r.Route(context.Background(), &ChangeEvent{Entity: EntityPlan, Type: "archived"})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestRouteMalformedSnapshot(t *testing.T) {
	pusher := newFakePusher()
	r := newTestRouter(pusher, "H")

	_, err := r.Route(context.Background(), &ChangeEvent{
		Entity: EntityPlan,
		Type:   ChangeDeleted,
		Before: json.RawMessage(`{"acceptedParticipants":"not-a-list"}`),
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownEvent)
	assert.Empty(t, pusher.Calls())
}

func TestRouteIsIdempotentPerInput(t *testing.T) {
	pusher := newFakePusher()
	r := newTestRouter(pusher, "X", "Y")
	ev := &ChangeEvent{
		Entity: EntityPlan,
		Type:   ChangeDeleted,
		Before: json.RawMessage(`{"hostId":"H","acceptedParticipants":["X","Y"]}`),
	}

	first, err := r.Route(context.Background(), ev)
	require.NoError(t, err)
	second, err := r.Route(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, pusher.Calls(), 4)
}
