package actor

import (
	"testing"
	"time"

	"broute2mqtt/internal/core/domain"
	"broute2mqtt/internal/util/actorutil"
	"broute2mqtt/pkg/broute"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetDeviceInfoMeterActor(t *testing.T) {

	assert := assert.New(t)

	reader, err := broute.CreateTestMeterReader()
	if err != nil {
		t.Error(err)
		return
	}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewMeterActor(reader, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetDeviceInfoRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetDeviceInfoResponse)

	assert.Equal(resp.Info.Manufacturer, "ROHM Co., Ltd.", "Adapter manufacturer")
	assert.Equal(resp.Info.Model, "BP35A1", "Adapter model")

	context.Stop(pid)

	as.Shutdown()
}

func TestGetMeterReadingMeterActor(t *testing.T) {

	assert := assert.New(t)

	reader, err := broute.CreateTestMeterReader()
	if err != nil {
		t.Error(err)
		return
	}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewMeterActor(reader, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetMeterReadingRequest{}

	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetMeterReadingResponse)

	assert.NotNil(resp.Reading.InstantPowerWatts, "InstantPowerWatts present")
	assert.Equal(int32(350), *resp.Reading.InstantPowerWatts, "InstantPowerWatts value")
	assert.NotNil(resp.Reading.InstantCurrentAmps, "InstantCurrentAmps present")
	assert.True(*resp.Reading.InstantCurrentAmps > 0, "InstantCurrentAmps bounds")
	assert.NotNil(resp.Reading.CumulativeForwardKWh, "CumulativeForwardKWh present")
	assert.True(*resp.Reading.CumulativeForwardKWh > *resp.Reading.CumulativeReverseKWh, "forward greater than reverse")

	context.Stop(pid)

	as.Shutdown()
}
