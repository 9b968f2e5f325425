package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sepehrmoghiseh/musifyyy/bot/admincmd"
	"github.com/sepehrmoghiseh/musifyyy/bot/broadcast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBroadcaster struct {
	texts  []string
	report broadcast.Report
	err    error
}

func (s *stubBroadcaster) Send(_ context.Context, text string) (broadcast.Report, error) {
	s.texts = append(s.texts, text)
	return s.report, s.err
}

func TestBuildUsersCommand(t *testing.T) {
	out, err := BuildUsersCommand(&stubUserRepo{count: 42}).Handler(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "👥 Total users: 42", out)

	_, err = BuildUsersCommand(&stubUserRepo{err: errors.New("db down")}).Handler(context.Background(), "")
	assert.Error(t, err)

	out, err = BuildUsersCommand(nil).Handler(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, usersUnavailable, out)
}

func TestBuildBroadcastCommand(t *testing.T) {
	sender := &stubBroadcaster{report: broadcast.Report{Total: 10, Success: 9, Blocked: 1}}
	cmd := BuildBroadcastCommand(sender)

	out, err := cmd.Handler(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, broadcastUsage, out)
	assert.Empty(t, sender.texts)

	out, err = cmd.Handler(context.Background(), "New release!")
	require.NoError(t, err)
	assert.Equal(t, []string{"New release!"}, sender.texts)
	assert.Equal(t, sender.report.Text(), out)
}

func TestAdminCommandHandlerIgnoresNonAdmins(t *testing.T) {
	called := false
	h := &AdminCommandHandler{
		BotName:  "musifyyy_bot",
		AdminIDs: AdminSet([]int64{1}),
		Commands: []admincmd.Command{{
			Name: "users",
			Handler: func(context.Context, string) (string, error) {
				called = true
				return "", nil
			},
		}},
	}
	update := privateMessage("/users")
	h.Handle(context.Background(), nil, &update)
	assert.False(t, called)
	assert.Equal(t, []string{"users"}, h.Names())
}

func TestAdminCommandHandlerRepliesToAdmins(t *testing.T) {
	b, caller := newRecordingBot(t)
	h := &AdminCommandHandler{
		BotName:  "musifyyy_bot",
		AdminIDs: AdminSet([]int64{10}),
		Commands: []admincmd.Command{BuildUsersCommand(&stubUserRepo{count: 42})},
	}
	update := privateMessage("/users")
	h.Handle(context.Background(), b, &update)

	sends := caller.byMethod("sendMessage")
	require.Len(t, sends, 1)
	assert.EqualValues(t, 10, sends[0].Params["chat_id"])
	assert.Equal(t, fmt.Sprintf(usersTemplate, int64(42)), sends[0].Params["text"])
}
