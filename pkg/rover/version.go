package rover

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/openrover.go/pkg/l0/comm"
	"github.com/robotalks/openrover.go/pkg/l0/data"
)

// DefaultVersionAttempts is the number of version requests sent by a probe.
const DefaultVersionAttempts = 2

// ProbeVersion asks a freshly opened device for its firmware version with
// the motors stopped. A reply for another element is skipped and the
// request is sent again, up to attempts times. ctx bounds the whole probe.
func ProbeVersion(ctx context.Context, link Link, attempts int) (data.FirmwareVersion, error) {
	return probeVersion(ctx, attempts, func() error {
		return link.Submit(comm.VerbGetData, data.IndexFirmwareVersion, 0, 0, 0)
	}, link.ReadOne)
}

func probeVersion(ctx context.Context, attempts int, request func() error, read func(context.Context) (int, data.Value, error)) (data.FirmwareVersion, error) {
	var cause error
	for i := 0; i < attempts; i++ {
		if err := request(); err != nil {
			return data.FirmwareVersion{}, fmt.Errorf("%w: %v", ErrNoVersion, err)
		}
		key, val, err := read(ctx)
		if err != nil {
			cause = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if version, ok := val.(data.FirmwareVersion); ok && key == data.IndexFirmwareVersion {
			return version, nil
		}
		glog.Warningf("version probe: skip data %d:%v", key, val)
		cause = &UnexpectedResponseError{Expected: data.IndexFirmwareVersion, Actual: key, Value: val}
	}
	if cause == nil {
		return data.FirmwareVersion{}, ErrNoVersion
	}
	return data.FirmwareVersion{}, fmt.Errorf("%w: %v", ErrNoVersion, cause)
}
