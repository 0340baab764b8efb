// Package dispatch maps each inbound chat event to its replies.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"photoscribe/pkg/bus"
	"photoscribe/pkg/media"
	"photoscribe/pkg/vision"

	"github.com/google/uuid"
)

// Replier sends text into a conversation as a reply to one message.
type Replier interface {
	Reply(ctx context.Context, chatID int64, replyTo int, text string) error
}

// Stager turns a photo reference into a local file the caller must release.
type Stager interface {
	Stage(ctx context.Context, ref media.PhotoRef) (*media.StagedImage, error)
}

// Describer produces text for the image stored at imagePath.
type Describer interface {
	Describe(ctx context.Context, imagePath string) (string, error)
}

// Publisher receives lifecycle events. bus.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event bus.Event) bool
}

type Option func(*Dispatcher)

// WithLogger sets the operator log stream.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithEvents publishes lifecycle events to p.
func WithEvents(p Publisher) Option {
	return func(d *Dispatcher) {
		d.events = p
	}
}

type Dispatcher struct {
	replier      Replier
	stager       Stager
	describer    Describer
	events       Publisher
	log          *slog.Logger
	newRequestID func() string
}

func New(replier Replier, stager Stager, describer Describer, opts ...Option) (*Dispatcher, error) {
	if replier == nil {
		return nil, errors.New("replier is required")
	}
	if stager == nil {
		return nil, errors.New("stager is required")
	}
	if describer == nil {
		return nil, errors.New("describer is required")
	}

	d := &Dispatcher{
		replier:      replier,
		stager:       stager,
		describer:    describer,
		log:          slog.Default(),
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("component", "dispatch")

	return d, nil
}

// Handle routes ev to its handler. The returned error only reports replies
// that could not be delivered; pipeline failures become reply text.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case KindCommand:
		if ev.Command == commandStart {
			return d.onCommandStart(ctx, ev)
		}
		return d.onOther(ctx, ev)
	case KindPhoto:
		if ev.Photo == nil {
			return d.onOther(ctx, ev)
		}
		return d.onPhoto(ctx, ev)
	default:
		return d.onOther(ctx, ev)
	}
}

func (d *Dispatcher) onCommandStart(ctx context.Context, ev Event) error {
	d.publish(ctx, bus.Event{Type: bus.EventCommandHandled, ChatID: ev.ChatID, MessageID: ev.MessageID, Payload: map[string]string{"command": ev.Command}})
	return d.reply(ctx, ev, ReplyGreeting)
}

func (d *Dispatcher) onOther(ctx context.Context, ev Event) error {
	d.publish(ctx, bus.Event{Type: bus.EventOtherHandled, ChatID: ev.ChatID, MessageID: ev.MessageID})
	return d.reply(ctx, ev, ReplySendPhoto)
}

// onPhoto acknowledges, runs the describe pipeline, and replies with the
// outcome. The staged file is gone before the outcome reply is sent.
func (d *Dispatcher) onPhoto(ctx context.Context, ev Event) error {
	requestID := d.newRequestID()
	log := d.log.With("request_id", requestID, "chat_id", ev.ChatID, "message_id", ev.MessageID)
	base := bus.Event{ChatID: ev.ChatID, MessageID: ev.MessageID, RequestID: requestID}

	log.Info("Photo received", "file_id", ev.Photo.FileID)
	d.publish(ctx, withType(base, bus.EventPhotoReceived))

	var sendErrs []error
	if err := d.reply(ctx, ev, ReplyProcessing); err != nil {
		// The pipeline still runs; the result reply may get through.
		sendErrs = append(sendErrs, err)
	}

	startedAt := time.Now()
	text, err := d.describePhoto(ctx, *ev.Photo, log)
	elapsed := time.Since(startedAt)

	outcome := withType(base, bus.EventDescribeCompleted)
	outcome.Duration = elapsed

	var answer string
	switch {
	case err == nil:
		answer = ReplyDonePrefix + text
		log.Info("Photo described", "duration_ms", elapsed.Milliseconds(), "response_length", len(text))
	case vision.KindFromError(err) != "":
		answer = ReplyDescribeFailed
		outcome.Type = bus.EventDescribeFailed
		outcome.Error = err.Error()
		outcome.Payload = map[string]string{"kind": string(vision.KindFromError(err))}
		log.Error("Failed to describe photo", "duration_ms", elapsed.Milliseconds(), "error", err)
	default:
		answer = ReplyProcessingFailed
		outcome.Type = bus.EventStageFailed
		outcome.Error = err.Error()
		if op := media.OpFromError(err); op != "" {
			outcome.Payload = map[string]string{"op": op}
		}
		log.Error("Failed to process photo", "duration_ms", elapsed.Milliseconds(), "error", err)
	}
	d.publish(ctx, outcome)

	if err := d.reply(ctx, ev, answer); err != nil {
		sendErrs = append(sendErrs, err)
	}

	return errors.Join(sendErrs...)
}

// describePhoto stages the photo, describes it, and always releases the
// staged file before returning. A failed release fails the operation.
func (d *Dispatcher) describePhoto(ctx context.Context, ref media.PhotoRef, log *slog.Logger) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("photo pipeline panic: %v", r)
		}
	}()

	staged, err := d.stager.Stage(ctx, ref)
	if err != nil {
		return "", err
	}
	defer func() {
		if releaseErr := staged.Release(); releaseErr != nil {
			log.Error("Failed to remove staged photo", "path", staged.Path, "error", releaseErr)
			if err == nil {
				text, err = "", releaseErr
			}
		}
	}()

	log.Debug("Photo staged", "path", staged.Path, "mime_type", staged.MIMEType, "bytes", staged.Size)

	return d.describer.Describe(ctx, staged.Path)
}

func (d *Dispatcher) reply(ctx context.Context, ev Event, text string) error {
	if err := d.replier.Reply(ctx, ev.ChatID, ev.MessageID, text); err != nil {
		d.log.Error("Failed to send reply", "chat_id", ev.ChatID, "message_id", ev.MessageID, "error", err)
		return fmt.Errorf("reply to message %d: %w", ev.MessageID, err)
	}

	return nil
}

func (d *Dispatcher) publish(ctx context.Context, event bus.Event) {
	if d.events == nil {
		return
	}
	d.events.Publish(ctx, event)
}

func withType(event bus.Event, eventType bus.EventType) bus.Event {
	event.Type = eventType
	return event
}
