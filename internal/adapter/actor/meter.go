package actor

import (
	"fmt"
	"time"

	"broute2mqtt/internal/core/domain"
	"broute2mqtt/internal/util/actorutil"
	"broute2mqtt/pkg/broute"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

const (
	METER_ACTOR_ID = "meter"

	// connect can loop through several scan passes before finding the meter
	meterReadTimeout = 30 * time.Second
)

// MeterActor owns the blocking MeterReader and serializes every exchange
// with it. Reads run as background tasks while requests pile up in the
// stash. A failed connect or a transport-errored read panics so the
// supervisor's backoff restart drives reconnection.
type MeterActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	reader   broute.MeterReader
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewMeterActor(reader broute.MeterReader, logger *zap.Logger) *MeterActor {
	act := &MeterActor{
		reader:   reader,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger("meter", logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MeterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MeterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("meter@starting started")
		if err := state.reader.Connect(); err != nil {
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.reader.Close()
	default:
		state.logger.Debug("meter@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MeterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("meter@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      METER_ACTOR_ID,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetDeviceInfoRequest:
		state.logger.Debug("meter@default: GetDeviceInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getDeviceInfo),
			mapTaskResult[domain.GetDeviceInfoResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetDeviceInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingMeter)
	case domain.GetMeterReadingRequest:
		state.logger.Debug("meter@default: GetMeterReadingRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.readSnapshot),
			mapTaskResult[domain.GetMeterReadingResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetMeterReadingResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(meterReadTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingMeter)
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("meter@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MeterActor) WaitingMeter(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("meter@WaitingMeter backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
		// a failed exchange means the link is gone; restart to reconnect
		if resp, ok := msg.message.(domain.GetMeterReadingResponse); ok && resp.HasResponseError() {
			panic(resp.GetResponseError())
		}
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("meter@WaitingMeter stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *MeterActor) getDeviceInfo() (*domain.GetDeviceInfoResponse, error) {
	info, err := a.reader.GetInfo()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetDeviceInfoResponse{
		Info: info,
	}, nil
}

func (a *MeterActor) readSnapshot() (*domain.GetMeterReadingResponse, error) {
	reading, err := a.reader.ReadSnapshot()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetMeterReadingResponse{
		Reading: reading,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
