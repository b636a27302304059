package actor

import (
	"errors"
	"fmt"
	"time"

	"broute2mqtt/internal/config"
	"broute2mqtt/internal/core/domain"
	"broute2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	HADISCOVERY_ACTOR_ID = "hadiscovery"
)

type HADiscoveryActor struct {
	config            *config.Config
	behavior          actor.Behavior
	stash             *actorutil.Stash
	meterActor        *actor.PID
	mqttActor         *actor.PID
	meterActorHealthy bool
	mqttActorHealthy  bool
	healthyRecv       int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, meterActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:     config,
		meterActor: meterActor,
		mqttActor:  mqttActor,
		behavior:   actor.NewBehavior(),
		stash:      &actorutil.Stash{},
		logger:     actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// Check Meter and MQTT actor healthy
		state.healthyRecv = 0
		state.meterActorHealthy = false
		state.mqttActorHealthy = false
		// Meter Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.meterActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_METER,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_METER:
				state.meterActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.meterActorHealthy && state.mqttActorHealthy {
				// Ask Meter GetDeviceInfoRequest
				actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.meterActor, domain.GetDeviceInfoRequest{}, 2*time.Second), func(err error) any {
					return domain.GetDeviceInfoResponse{
						ActorResponseMixIn: domain.ActorResponseMixIn{
							ResponseError: err,
						},
					}
				})
				state.behavior.Become(state.WaitingInfoReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Meter Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetDeviceInfoResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@info: GetDeviceInfoResponse", zap.Any("response", msg))

		var sensors []domain.GenericSensor

		bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
		bridgeSensors := domain.BridgeSensors(bridgeDevice)
		sensors = append(sensors, bridgeSensors...)

		meterDevice := domain.MeterDevice(msg.Info, state.config.Serial.RouteBID)
		meterDevice.ViaDevice = bridgeDevice.Id
		meterSensors := domain.MeterSensors(meterDevice)
		for i := range meterSensors {
			if i > 0 {
				meterSensors[i].Device = domain.IdDevice(meterDevice)
			}
			sensors = append(sensors, meterSensors[i])
		}

		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors: sensors,
		})
		state.behavior.Become(state.Done)

	default:
		state.logger.Debug("hadiscovery@info: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}
