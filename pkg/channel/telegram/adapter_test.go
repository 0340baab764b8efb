package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"photoscribe/pkg/config"
	"photoscribe/pkg/dispatch"
	"photoscribe/pkg/media"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/require"
)

var testToken = "123456789:" + strings.Repeat("A", 35)

type fakeBotAPI struct {
	mu          sync.Mutex
	sent        []map[string]any
	filePath    string
	fileData    []byte
	missingFile bool
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasPrefix(r.URL.Path, "/file/bot"+testToken+"/"):
			if f.missingFile || strings.TrimPrefix(r.URL.Path, "/file/bot"+testToken+"/") != f.filePath {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(f.fileData)
		case strings.HasSuffix(r.URL.Path, "/getFile"):
			_, _ = io.WriteString(w, `{"ok": true, "result": {"file_id": "abc", "file_unique_id": "u1", "file_path": "`+f.filePath+`"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			body, _ := io.ReadAll(r.Body)
			var payload map[string]any
			_ = json.Unmarshal(body, &payload)
			f.mu.Lock()
			f.sent = append(f.sent, payload)
			f.mu.Unlock()
			_, _ = io.WriteString(w, `{"ok": true, "result": {"message_id": 99, "date": 0, "chat": {"id": 100, "type": "private"}}}`)
		default:
			_, _ = io.WriteString(w, `{"ok": false, "error_code": 404, "description": "Not Found"}`)
		}
	})
}

func (f *fakeBotAPI) sentMessages() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.sent...)
}

func newTestAdapter(t *testing.T, api *fakeBotAPI) *Adapter {
	t.Helper()

	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	adapter, err := NewAdapter(config.TelegramConfig{Token: testToken}, nil,
		telego.WithAPIServer(server.URL),
		telego.WithDiscardLogger(),
	)
	require.NoError(t, err)
	return adapter
}

func TestNewAdapterRequiresToken(t *testing.T) {
	_, err := NewAdapter(config.TelegramConfig{Token: "  "}, nil)
	require.Error(t, err)
}

func TestFetchDownloadsFileContent(t *testing.T) {
	api := &fakeBotAPI{filePath: "photos/file_1.jpg", fileData: []byte("jpeg-bytes")}
	adapter := newTestAdapter(t, api)

	remote, err := adapter.Fetch(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, "photos/file_1.jpg", remote.Path)
	require.Equal(t, []byte("jpeg-bytes"), remote.Data)
}

func TestFetchDownloadFailureHidesToken(t *testing.T) {
	api := &fakeBotAPI{filePath: "photos/file_1.jpg", missingFile: true}
	adapter := newTestAdapter(t, api)

	_, err := adapter.Fetch(context.Background(), "abc")
	require.Error(t, err)
	require.NotContains(t, err.Error(), testToken)
}

func TestReplyQuotesOriginalMessage(t *testing.T) {
	api := &fakeBotAPI{}
	adapter := newTestAdapter(t, api)

	require.NoError(t, adapter.Reply(context.Background(), 100, 7, "Готово!\n\ntext"))

	sent := api.sentMessages()
	require.Len(t, sent, 1)
	require.Equal(t, "Готово!\n\ntext", sent[0]["text"])
	require.EqualValues(t, 100, sent[0]["chat_id"])

	replyParams, ok := sent[0]["reply_parameters"].(map[string]any)
	require.True(t, ok, "expected reply_parameters in request")
	require.EqualValues(t, 7, replyParams["message_id"])
}

func TestReplySplitsLongText(t *testing.T) {
	api := &fakeBotAPI{}
	adapter := newTestAdapter(t, api)

	require.NoError(t, adapter.Reply(context.Background(), 100, 7, strings.Repeat("x", maxMessageRunes+10)))

	sent := api.sentMessages()
	require.Len(t, sent, 2)
	require.Contains(t, sent[0], "reply_parameters")
	require.NotContains(t, sent[1], "reply_parameters")
}

// cancelingDescriber cancels the run context mid-call, as a shutdown signal would.
type cancelingDescriber struct {
	cancel     context.CancelFunc
	ctxErrSeen error
}

func (d *cancelingDescriber) Describe(ctx context.Context, _ string) (string, error) {
	d.cancel()
	d.ctxErrSeen = ctx.Err()
	return "A cat on a sofa. #cats", nil
}

func TestInFlightPhotoCompletesAfterShutdown(t *testing.T) {
	api := &fakeBotAPI{filePath: "photos/file_1.jpg", fileData: []byte("jpeg-bytes")}
	adapter := newTestAdapter(t, api)

	stager, err := media.NewStager(t.TempDir(), adapter, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	describer := &cancelingDescriber{cancel: cancel}
	dispatcher, err := dispatch.New(adapter, stager, describer)
	require.NoError(t, err)

	update := telego.Update{
		UpdateID: 1,
		Message: &telego.Message{
			MessageID: 7,
			Chat:      telego.Chat{ID: 100},
			From:      &telego.User{ID: 5},
			Photo:     []telego.PhotoSize{{FileID: "abc", Width: 1280, Height: 853}},
		},
	}
	adapter.handleUpdate(ctx, update, dispatcher.Handle)

	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.NoError(t, describer.ctxErrSeen, "handler context must survive shutdown")

	sent := api.sentMessages()
	require.Len(t, sent, 2)
	require.Equal(t, dispatch.ReplyProcessing, sent[0]["text"])
	require.Equal(t, dispatch.ReplyDonePrefix+"A cat on a sofa. #cats", sent[1]["text"])
}
