package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stretchr/testify/assert"
)

func TestStartLink(t *testing.T) {
	b := &Bot{API: &tgbotapi.BotAPI{Self: tgbotapi.User{UserName: "fizmat_gate_bot"}}}

	assert.Equal(t,
		"https://t.me/fizmat_gate_bot?start=verify_-1001234567890",
		b.StartLink(-1001234567890))
}

func TestLockedPermissions(t *testing.T) {
	perms := LockedPermissions()

	assert.False(t, perms.CanSendMessages)
	assert.False(t, perms.CanSendMediaMessages)
	assert.False(t, perms.CanSendPolls)
	assert.False(t, perms.CanSendOtherMessages)
	assert.False(t, perms.CanAddWebPagePreviews)
}

func TestOpenPermissions(t *testing.T) {
	perms := OpenPermissions()

	assert.True(t, perms.CanSendMessages)
	assert.True(t, perms.CanSendMediaMessages)
	assert.True(t, perms.CanSendPolls)
	assert.True(t, perms.CanSendOtherMessages)
	assert.True(t, perms.CanAddWebPagePreviews)
	assert.False(t, perms.CanChangeInfo)
	assert.False(t, perms.CanPinMessages)
}
