package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// LockedPermissions mutes a member completely until registration.
func LockedPermissions() tgbotapi.ChatPermissions {
	return tgbotapi.ChatPermissions{}
}

// OpenPermissions restores the regular member permission bitset.
func OpenPermissions() tgbotapi.ChatPermissions {
	return tgbotapi.ChatPermissions{
		CanSendMessages:       true,
		CanSendMediaMessages:  true,
		CanSendPolls:          true,
		CanSendOtherMessages:  true,
		CanAddWebPagePreviews: true,
	}
}
