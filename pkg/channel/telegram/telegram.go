package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"photoscribe/pkg/channel"
	"photoscribe/pkg/config"
	"photoscribe/pkg/dispatch"
	"photoscribe/pkg/media"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const channelName = "telegram"
const messagePreviewLimit = 240
const typingRefreshInterval = 4 * time.Second

// Telegram rejects messages above 4096 characters; keep headroom.
const maxMessageRunes = 4000

// Bot API downloads are capped at 20 MB.
const maxDownloadBytes = 20 << 20

// Adapter bridges Telegram updates into dispatcher events and sends replies back.
type Adapter struct {
	bot        *telego.Bot
	allowFrom  map[string]struct{}
	httpClient *http.Client
	log        *slog.Logger
}

// NewAdapter validates Telegram configuration and constructs the bot client.
// No network call is made until Run.
func NewAdapter(cfg config.TelegramConfig, log *slog.Logger, opts ...telego.BotOption) (*Adapter, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("telegram token is required")
	}

	if log == nil {
		log = slog.Default()
	}

	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	return &Adapter{
		bot:        bot,
		allowFrom:  allowFromSet(cfg.AllowFrom),
		httpClient: &http.Client{},
		log:        log.With("component", "channel.telegram"),
	}, nil
}

// Name returns the channel identifier used in logs.
func (a *Adapter) Name() string {
	return channelName
}

// Run starts long polling and hands each message to handler, one at a time.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}

	updates, err := a.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	a.log.Info("Telegram channel started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil
				}
				return errors.New("telegram updates channel closed")
			}

			a.handleUpdate(ctx, update, handler)
		}
	}
}

func (a *Adapter) handleUpdate(ctx context.Context, update telego.Update, handler channel.Handler) {
	message := update.Message
	if message == nil {
		return
	}
	if message.From == nil {
		a.log.Debug("Ignoring message without sender")
		return
	}

	senderID := strconv.FormatInt(message.From.ID, 10)
	if !a.senderAllowed(senderID) {
		a.log.Debug("Ignoring message from unauthorized sender", "sender_id", senderID)
		return
	}

	ev := classify(*message)
	a.log.Info("Received message",
		"update_id", update.UpdateID,
		"chat_id", ev.ChatID,
		"sender_id", senderID,
		"kind", string(ev.Kind),
		"content", previewText(message.Text),
	)

	// Shutdown stops polling, not the event already accepted: it still gets
	// its result reply.
	handlerCtx := context.WithoutCancel(ctx)

	stopTyping := func() {}
	if ev.Kind == dispatch.KindPhoto {
		stopTyping = a.startTypingIndicator(handlerCtx, message.Chat.ID)
	}

	err := handler(handlerCtx, ev)
	stopTyping()
	if err != nil {
		a.log.Error("Failed to handle inbound message", "chat_id", ev.ChatID, "error", err)
	}
}

// Reply sends text to chatID as a reply to message replyTo, split into
// Telegram-sized chunks. Only the first chunk carries the reply reference.
func (a *Adapter) Reply(ctx context.Context, chatID int64, replyTo int, text string) error {
	for i, chunk := range splitMessage(text, maxMessageRunes) {
		params := tu.Message(tu.ID(chatID), chunk)
		if i == 0 && replyTo > 0 {
			params = params.WithReplyParameters(&telego.ReplyParameters{
				MessageID:                replyTo,
				AllowSendingWithoutReply: true,
			})
		}

		a.log.Info("Sending message", "chat_id", chatID, "reply_to", replyTo, "content", previewText(chunk))
		if _, err := a.bot.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}
	}

	return nil
}

// Fetch resolves a Telegram file id and downloads the file content.
func (a *Adapter) Fetch(ctx context.Context, fileID string) (media.RemoteFile, error) {
	file, err := a.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return media.RemoteFile{}, fmt.Errorf("get telegram file: %w", err)
	}
	if file == nil || strings.TrimSpace(file.FilePath) == "" {
		return media.RemoteFile{}, errors.New("telegram returned no file path")
	}

	data, err := a.download(ctx, a.bot.FileDownloadURL(file.FilePath))
	if err != nil {
		return media.RemoteFile{}, err
	}

	a.log.Debug("Downloaded telegram file", "file_id", fileID, "file_path", file.FilePath, "bytes", len(data))
	return media.RemoteFile{Path: file.FilePath, Data: data}, nil
}

// download fetches fileURL honoring ctx. Errors never include the URL, which
// embeds the bot token.
func (a *Adapter) download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, errors.New("download telegram file: invalid request")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("download telegram file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download telegram file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download telegram file: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("download telegram file: exceeds %d bytes", maxDownloadBytes)
	}

	return data, nil
}

// senderAllowed checks whether a sender is permitted by allow_from config.
//
// When no allow list is configured, all senders are accepted.
func (a *Adapter) senderAllowed(senderID string) bool {
	if len(a.allowFrom) == 0 {
		return true
	}

	_, ok := a.allowFrom[strings.TrimSpace(senderID)]
	return ok
}

// startTypingIndicator sends an initial typing action and refreshes it periodically
// until the returned cancel function is called.
func (a *Adapter) startTypingIndicator(ctx context.Context, chatID int64) context.CancelFunc {
	typingCtx, cancel := context.WithCancel(ctx)

	sendTyping := func() {
		if err := a.bot.SendChatAction(typingCtx, tu.ChatAction(tu.ID(chatID), telego.ChatActionTyping)); err != nil && typingCtx.Err() == nil {
			a.log.Debug("Failed to send typing indicator", "chat_id", chatID, "error", err)
		}
	}

	sendTyping()

	go func() {
		ticker := time.NewTicker(typingRefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-typingCtx.Done():
				return
			case <-ticker.C:
				sendTyping()
			}
		}
	}()

	return cancel
}

// allowFromSet normalizes allow_from values into a lookup set.
func allowFromSet(allowFrom []string) map[string]struct{} {
	if len(allowFrom) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowFrom))
	for _, value := range allowFrom {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if len(allowed) == 0 {
		return nil
	}

	return allowed
}

// previewText returns a bounded log-safe preview of message text.
func previewText(text string) string {
	trimmed := []rune(strings.TrimSpace(text))
	if len(trimmed) <= messagePreviewLimit {
		return string(trimmed)
	}

	return string(trimmed[:messagePreviewLimit]) + "..."
}
