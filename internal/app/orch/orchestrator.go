package orch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dkeye/roomchat/internal/app"
	"github.com/dkeye/roomchat/internal/attachment"
	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"github.com/rs/zerolog/log"
)

const defaultOpTimeout = 5 * time.Second

type Config struct {
	Store              core.RoomStore
	Gate               *app.Gate
	Policy             app.Policy
	ExpiryWindow       time.Duration
	AfterFunc          app.AfterFunc
	OpTimeout          time.Duration
	MaxAttachmentBytes int64
}

// Orchestrator ties presence, routing and expiry together. Every mutation
// of one room code runs under Locks.Lock(code).
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Locks    *app.RoomLocks
	Expiry   *app.Scheduler
	Gate     *app.Gate
	Store    core.RoomStore
	Policy   app.Policy

	// presenceMu pairs session bind/unbind with the durable online flag.
	presenceMu         sync.Mutex
	opTimeout          time.Duration
	maxAttachmentBytes int64
	now                func() time.Time
}

func New(cfg Config) *Orchestrator {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = defaultOpTimeout
	}
	if cfg.MaxAttachmentBytes <= 0 {
		cfg.MaxAttachmentBytes = attachment.DefaultMaxBytes
	}
	if cfg.Policy == nil {
		cfg.Policy = app.SimplePolicy{}
	}
	rooms := app.NewRoomManager()
	locks := app.NewRoomLocks()
	o := &Orchestrator{
		Registry:           app.NewRegistry(),
		Rooms:              rooms,
		Locks:              locks,
		Gate:               cfg.Gate,
		Store:              cfg.Store,
		Policy:             cfg.Policy,
		opTimeout:          cfg.OpTimeout,
		maxAttachmentBytes: cfg.MaxAttachmentBytes,
		now:                func() time.Time { return time.Now().UTC() },
	}
	o.Expiry = app.NewScheduler(app.SchedulerConfig{
		Window:       cfg.ExpiryWindow,
		PurgeTimeout: cfg.OpTimeout,
		Locks:        locks,
		Occupancy:    rooms,
		Purger:       cfg.Store,
		AfterFunc:    cfg.AfterFunc,
		OnDeleted:    o.onRoomDeleted,
	})
	return o
}

func (o *Orchestrator) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.opTimeout)
}

// broadcast encodes v once and fans it out to the room, then applies the
// backpressure policy to members whose buffers were full.
func (o *Orchestrator) broadcast(code domain.RoomCode, except core.SessionID, v any) core.PublishResult {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("room", string(code)).Msg("broadcast marshal")
		return core.PublishResult{}
	}
	res := o.Rooms.Broadcast(code, except, data)
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(code, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("room", string(code)).Str("sid", string(slow)).Msg("kicking slow member")
			o.KickBySID(slow)
		case app.NoAction:
		}
	}
	return res
}

// SendTo delivers v to a single session.
func (o *Orchestrator) SendTo(sess core.MemberSession, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("send marshal")
		return
	}
	if err := sess.Signal().TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("user", string(sess.Meta().User.ID)).Msg("direct send dropped")
	}
}

// onRoomDeleted runs from the expiry scheduler with the room lock held.
func (o *Orchestrator) onRoomDeleted(code domain.RoomCode) {
	res := o.broadcast(code, "", core.RoomDeleted(code))
	log.Info().Str("module", "orch").Str("room", string(code)).Int("notified", res.SendTo).Msg("room expired")
}

// List reports live rooms and whether their expiry timer is armed.
func (o *Orchestrator) List() []core.RoomInfo {
	rooms := o.Rooms.List()
	for i := range rooms {
		rooms[i].ExpiryPending = o.Expiry.Pending(rooms[i].Code)
	}
	return rooms
}

// Shutdown stops every pending expiry timer and closes live connections.
func (o *Orchestrator) Shutdown() {
	o.Expiry.Stop()
	for _, sid := range o.Registry.SessionIDs() {
		o.KickBySID(sid)
	}
	log.Info().Str("module", "orch").Msg("orchestrator shut down")
}
