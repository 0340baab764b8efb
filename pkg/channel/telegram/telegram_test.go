package telegram

import (
	"strings"
	"testing"

	"photoscribe/pkg/dispatch"

	"github.com/mymmrac/telego"
)

func TestAllowFromSet(t *testing.T) {
	allowed := allowFromSet([]string{" 123 ", "", "456", "123"})
	if len(allowed) != 2 {
		t.Fatalf("allowFromSet len = %d, want 2", len(allowed))
	}
	if _, ok := allowed["123"]; !ok {
		t.Fatal("allowFromSet missing 123")
	}
	if _, ok := allowed["456"]; !ok {
		t.Fatal("allowFromSet missing 456")
	}
	if allowFromSet([]string{" ", ""}) != nil {
		t.Fatal("expected nil set for blank entries")
	}
}

func TestSenderAllowed(t *testing.T) {
	adapter := &Adapter{allowFrom: map[string]struct{}{"1": {}}}
	if !adapter.senderAllowed("1") {
		t.Fatal("expected sender 1 to be allowed")
	}
	if adapter.senderAllowed("2") {
		t.Fatal("expected sender 2 to be denied")
	}

	adapter.allowFrom = nil
	if !adapter.senderAllowed("any") {
		t.Fatal("expected sender to be allowed when allowlist empty")
	}
}

func TestPreviewText(t *testing.T) {
	short := " hello "
	if got := previewText(short); got != "hello" {
		t.Fatalf("previewText short = %q, want %q", got, "hello")
	}

	long := strings.Repeat("a", messagePreviewLimit+20)
	got := previewText(long)
	if len(got) != messagePreviewLimit+3 {
		t.Fatalf("previewText long len = %d, want %d", len(got), messagePreviewLimit+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("previewText long = %q, want ellipsis suffix", got)
	}

	cyrillic := previewText(strings.Repeat("ж", messagePreviewLimit+1))
	if !strings.HasPrefix(cyrillic, strings.Repeat("ж", messagePreviewLimit)) {
		t.Fatal("previewText must not split multi-byte runes")
	}
}

func TestClassifyPhotoPicksLargestVariant(t *testing.T) {
	message := telego.Message{
		MessageID: 9,
		Chat:      telego.Chat{ID: 100},
		From:      &telego.User{ID: 5},
		Caption:   "/start",
		Photo: []telego.PhotoSize{
			{FileID: "small", Width: 90, Height: 60},
			{FileID: "large", Width: 1280, Height: 853},
			{FileID: "medium", Width: 320, Height: 213},
		},
	}

	ev := classify(message)
	if ev.Kind != dispatch.KindPhoto {
		t.Fatalf("kind = %q, want photo", ev.Kind)
	}
	if ev.Photo == nil || ev.Photo.FileID != "large" {
		t.Fatalf("photo = %+v, want large variant", ev.Photo)
	}
	if ev.ChatID != 100 || ev.MessageID != 9 || ev.SenderID != 5 {
		t.Fatalf("event ids = %+v", ev)
	}
}

func TestClassifyImageDocument(t *testing.T) {
	ev := classify(telego.Message{
		Chat:     telego.Chat{ID: 1},
		Document: &telego.Document{FileID: "doc", FileName: "screen.png", MimeType: "image/png"},
	})
	if ev.Kind != dispatch.KindPhoto || ev.Photo.FileName != "screen.png" {
		t.Fatalf("event = %+v, want photo from document", ev)
	}

	ev = classify(telego.Message{
		Chat:     telego.Chat{ID: 1},
		Document: &telego.Document{FileID: "doc", FileName: "report.pdf", MimeType: "application/pdf"},
	})
	if ev.Kind != dispatch.KindOther {
		t.Fatalf("kind = %q, want other for non-image document", ev.Kind)
	}
}

func TestClassifyCommandsAndText(t *testing.T) {
	tests := []struct {
		text        string
		wantKind    dispatch.Kind
		wantCommand string
	}{
		{text: "/start", wantKind: dispatch.KindCommand, wantCommand: "start"},
		{text: "/Start@photoscribe_bot now", wantKind: dispatch.KindCommand, wantCommand: "start"},
		{text: "/help", wantKind: dispatch.KindCommand, wantCommand: "help"},
		{text: "hello /start", wantKind: dispatch.KindOther},
		{text: "/", wantKind: dispatch.KindOther},
		{text: "", wantKind: dispatch.KindOther},
	}

	for _, tt := range tests {
		ev := classify(telego.Message{Chat: telego.Chat{ID: 1}, Text: tt.text})
		if ev.Kind != tt.wantKind || ev.Command != tt.wantCommand {
			t.Fatalf("classify(%q) = (%q, %q), want (%q, %q)", tt.text, ev.Kind, ev.Command, tt.wantKind, tt.wantCommand)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("splitMessage short = %q", got)
	}

	text := strings.Repeat("a", 7) + "\n" + strings.Repeat("b", 7)
	got := splitMessage(text, 10)
	if len(got) != 2 {
		t.Fatalf("splitMessage chunks = %d, want 2", len(got))
	}
	if got[0] != strings.Repeat("a", 7)+"\n" || got[1] != strings.Repeat("b", 7) {
		t.Fatalf("splitMessage = %q", got)
	}

	noBreaks := splitMessage(strings.Repeat("ж", 25), 10)
	if len(noBreaks) != 3 || strings.Join(noBreaks, "") != strings.Repeat("ж", 25) {
		t.Fatalf("splitMessage without newlines = %q", noBreaks)
	}
}
