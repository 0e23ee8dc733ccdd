package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/GundamTCG/EloBot/internal/match"
)

// RenderChannel is the redis pub/sub channel lobby render events go through.
const RenderChannel = "lobby_renders"

const surfaceKeyPrefix = "surface:"

type renderEvent struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	Text      string `json:"text,omitempty"`
}

// Presenter materializes lobby messages as redis-backed surfaces. Each
// surface has a liveness key so a restart can tell a stale reference from
// a live one, and renders are published for the notification worker to
// fan out to connected clients.
type Presenter struct {
	rdb *redis.Client
}

func NewPresenter(rdb *redis.Client) *Presenter {
	return &Presenter{rdb: rdb}
}

func (p *Presenter) Create(ctx context.Context, channelID, text string) (match.Surface, error) {
	id := uuid.NewString()
	if err := p.rdb.Set(ctx, surfaceKeyPrefix+id, channelID, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to register surface: %w", err)
	}

	s := &surface{
		presenter: p,
		ref:       match.SurfaceRef{MessageID: id, ChannelID: channelID},
	}
	if err := s.Render(ctx, text); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Presenter) Attach(ctx context.Context, ref match.SurfaceRef) (match.Surface, error) {
	if ref.MessageID == "" {
		return nil, match.ErrSurfaceGone
	}
	_, err := p.rdb.Get(ctx, surfaceKeyPrefix+ref.MessageID).Result()
	if err == redis.Nil {
		return nil, match.ErrSurfaceGone
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check surface %s: %w", ref.MessageID, err)
	}
	return &surface{presenter: p, ref: ref}, nil
}

func (p *Presenter) publish(ctx context.Context, ev renderEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode render event: %v", err)
	}
	if err := p.rdb.Publish(ctx, RenderChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish render event: %w", err)
	}
	return nil
}

type surface struct {
	presenter *Presenter
	ref       match.SurfaceRef
}

func (s *surface) Render(ctx context.Context, text string) error {
	return s.presenter.publish(ctx, renderEvent{
		Type:      "lobby_update",
		ChannelID: s.ref.ChannelID,
		MessageID: s.ref.MessageID,
		Text:      text,
	})
}

func (s *surface) Delete(ctx context.Context) error {
	if err := s.presenter.publish(ctx, renderEvent{
		Type:      "lobby_delete",
		ChannelID: s.ref.ChannelID,
		MessageID: s.ref.MessageID,
	}); err != nil {
		return err
	}
	if err := s.presenter.rdb.Del(ctx, surfaceKeyPrefix+s.ref.MessageID).Err(); err != nil {
		return fmt.Errorf("failed to drop surface %s: %w", s.ref.MessageID, err)
	}
	return nil
}

func (s *surface) Ref() match.SurfaceRef {
	return s.ref
}
