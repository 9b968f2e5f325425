package handler

import (
	"fmt"
	"strings"
)

const (
	startTextTemplate = `🎵 *Welcome to Musifyyy!*

I find music on SoundCloud and YouTube and send it to you as audio.

*Two ways to use me:*

1️⃣ *Direct chat*
Send me a song name, an artist or a link.

2️⃣ *Inline mode*
Type ` + "`@%s song name`" + ` in any chat and pick a result.

*Commands:*
/start - show this message
/help - show this message
/stats - usage statistics`

	searchingTemplate   = "🔍 Searching across platforms for *%s*..."
	noResultsText       = "❌ No results found on any platform.\n\nTry:\n• Different search terms\n• Artist name only\n• Song title only\n\nOr use inline mode: type @%s in any chat"
	foundHeaderTemplate = "🎵 *Found %d tracks*\n_%s_\n\nChoose a track to download:"
	trackNotFoundText   = "❌ Track not found. Please search again."
	downloadingTemplate = "⏳ Downloading from %s..."
	sentTemplate        = "✅ Sent: *%s*\n📍 From: %s"
	busyText            = "⏳ The bot is busy right now. Please try again in a moment."
	linkDetectedText    = "🔗 Link detected, preparing download..."
	albumProgressTmpl   = "💿 Downloading album from %s... (%d/%d)"
	albumDoneTemplate   = "✅ Sent %d tracks from %s"
	tooLargeTemplate    = "⚠️ *%s* is too large for Telegram: could not shrink under %s (best %s)."
	sendFailedText      = "❌ Downloaded but could not send the file. Please try again."

	inlineDescriptionTemplate = "From %s - Tap to send"
	inlineMessageTemplate     = "%s *%s*\n\n🎵 Downloading from %s...\n⏳ Please wait, this may take a moment."
	inlineFallbackTemplate    = "✅ Downloaded! Check your chat with @%s\n📍 Source: %s"
	inlineFailedTemplate      = "⚠️ Download failed: %s\n\nTry searching again with @%s"
	inlinePendingButton       = "⏳ Downloading..."
	inlineNoResultsButton     = "❌ No results found. Search in chat"

	usersTemplate      = "👥 Total users: %d"
	usersUnavailable   = "👥 User storage is not available."
	broadcastUsage     = "Usage: /broadcast <message>"
	commandUnavailable = "Command unavailable"
	commandFailedTmpl  = "Command failed: %v"
	commandDoneText    = "Done"
	maxErrorTextRunes  = 200
)

func downloadFailedText(platformName string, err error) string {
	reason := "unknown error"
	if err != nil {
		reason = truncateTitle(err.Error(), maxErrorTextRunes)
	}
	return fmt.Sprintf("❌ Download failed from %s\n\n%s\n\nTry another result or search again.", platformName, reason)
}

// audioCaption is sent without a parse mode.
func audioCaption(title, platformName string, bitrate int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎵 %s\n📍 Source: %s", title, platformName)
	if bitrate > 0 {
		fmt.Fprintf(&b, "\n🗜 re-encoded at %d kbps", bitrate)
	}
	return b.String()
}

func formatSize(size int64) string {
	const mb = 1024 * 1024
	return fmt.Sprintf("%.1f MB", float64(size)/mb)
}

// Legacy Markdown cannot escape inside an entity, so markup characters
// are replaced rather than escaped.
var markdownReplacer = strings.NewReplacer("*", "", "_", " ", "`", "'", "[", "(", "]", ")")

func markdownSafe(s string) string {
	return markdownReplacer.Replace(s)
}
