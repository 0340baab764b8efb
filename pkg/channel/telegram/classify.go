package telegram

import (
	"strings"
	"unicode/utf8"

	"photoscribe/pkg/dispatch"
	"photoscribe/pkg/media"

	"github.com/mymmrac/telego"
)

// classify maps a Telegram message to a dispatcher event. Photos win over
// captions; image documents count as photos.
func classify(message telego.Message) dispatch.Event {
	ev := dispatch.Event{
		Kind:      dispatch.KindOther,
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
	}
	if message.From != nil {
		ev.SenderID = message.From.ID
	}

	if photo, ok := largestPhoto(message.Photo); ok {
		ev.Kind = dispatch.KindPhoto
		ev.Photo = &media.PhotoRef{FileID: photo.FileID}
		return ev
	}

	if doc := message.Document; doc != nil && strings.HasPrefix(strings.ToLower(doc.MimeType), "image/") {
		ev.Kind = dispatch.KindPhoto
		ev.Photo = &media.PhotoRef{FileID: doc.FileID, FileName: doc.FileName}
		return ev
	}

	if command, ok := parseCommand(message.Text); ok {
		ev.Kind = dispatch.KindCommand
		ev.Command = command
	}

	return ev
}

// largestPhoto picks the highest-resolution variant. Telegram lists sizes
// ascending, so ties resolve to the later entry.
func largestPhoto(sizes []telego.PhotoSize) (telego.PhotoSize, bool) {
	if len(sizes) == 0 {
		return telego.PhotoSize{}, false
	}

	best := sizes[0]
	for _, size := range sizes[1:] {
		if size.Width*size.Height >= best.Width*best.Height {
			best = size
		}
	}

	return best, best.FileID != ""
}

// parseCommand extracts "start" from "/start", "/Start@photo_bot arg".
func parseCommand(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}

	command := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(command, '@'); at >= 0 {
		command = command[:at]
	}
	if command == "" {
		return "", false
	}

	return strings.ToLower(command), true
}

// splitMessage cuts text into chunks of at most limit runes, preferring the
// last newline in the second half of a chunk.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	runes := []rune(text)
	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i >= limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}

	return chunks
}
