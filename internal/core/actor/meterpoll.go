package actor

import (
	"fmt"
	"time"

	"broute2mqtt/internal/config"
	"broute2mqtt/internal/core/domain"
	"broute2mqtt/internal/core/events"
	. "broute2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// one poll cycle can span a stashed read behind a reconnecting meter actor
const meterPollRequestTimeout = 45 * time.Second

// MeterPollActor periodically asks the meter actor for a snapshot and turns
// the optional fields into sensor update events on the event stream. A
// partial reading publishes only the fields that are present.
type MeterPollActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	meterActor  *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream

	logger *zap.Logger
}

type meterPollTick struct {
}

func NewMeterPollActor(config *config.Config, meterActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *MeterPollActor {
	act := &MeterPollActor{
		config:      config,
		meterActor:  meterActor,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_METER_POLL, logger),
		eventStream: eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MeterPollActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MeterPollActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("meterpoll@starting started")

		if state.config.MonitorConfig.PollIntervalMillis > 0 {
			state.scheduler = scheduler.NewTimerScheduler(ctx)
			state.scheduler.RequestOnce(time.Duration(state.config.MonitorConfig.PollIntervalMillis)*time.Millisecond, ctx.Self(), meterPollTick{})
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("meterpoll@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MeterPollActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("meterpoll@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_METER_POLL,
			Healthy: true,
			State:   "idle",
		})
	case meterPollTick:
		state.logger.Debug("meterpoll@default tick")
		// get meter reading
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.meterActor, domain.GetMeterReadingRequest{}, meterPollRequestTimeout), func(err error) any {
			return domain.GetMeterReadingResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		// schedule next tick
		state.scheduler.RequestOnce(time.Duration(state.config.MonitorConfig.PollIntervalMillis)*time.Millisecond, ctx.Self(), meterPollTick{})
		state.behavior.BecomeStacked(state.WaitingReadingReceive)
	default:
		state.logger.Debug("meterpoll@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MeterPollActor) WaitingReadingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetMeterReadingResponse:
		if msg.HasResponseError() {
			state.logger.Error("meterpoll@waiting GetMeterReadingResponse error", zap.Error(msg.GetResponseError()))
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
			return
		}
		state.logger.Debug("meterpoll@waiting GetMeterReadingResponse")
		if msg.Reading != nil {
			evs := events.MeterReadingToUpdateEvents(msg.Reading)
			for _, ev := range evs {
				state.eventStream.Publish(ev)
			}
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("meterpoll@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}
