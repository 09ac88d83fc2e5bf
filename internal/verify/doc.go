// Package verify confirms that a write reached the thermostat by re-reading
// /core/domain_objects until the new value shows up.
//
// The gateway accepts a PUT before the thermostat has applied it, so a single
// read straight after a write often still shows the old preset or setpoint.
// Run polls with an initial delay and exponential backoff:
//
//	result := verify.Run(ctx, client, host, verify.DefaultOptions(),
//	    verify.Temperature(20.5))
//	if !result.Success {
//	    return result.Error
//	}
package verify
