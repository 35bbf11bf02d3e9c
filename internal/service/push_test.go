package service

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePushSender struct {
	sent []*messaging.Message
	err  error
}

func (f *fakePushSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, m)
	return "projects/iznajmi/messages/1", nil
}

func TestSendPush(t *testing.T) {
	sender := &fakePushSender{}
	svc := newPushService(sender)

	err := svc.SendPush(context.Background(), "device-token", "Booking approved", "Chat is open", map[string]string{"booking_id": "4"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "device-token", msg.Token)
	assert.Equal(t, "Booking approved", msg.Notification.Title)
	assert.Equal(t, "4", msg.Data["booking_id"])
}

func TestSendPushErrors(t *testing.T) {
	svc := newPushService(&fakePushSender{err: errors.New("unregistered")})
	assert.Error(t, svc.SendPush(context.Background(), "t", "a", "b", nil))
	assert.Error(t, newPushService(&fakePushSender{}).SendPush(context.Background(), "", "a", "b", nil))
}
