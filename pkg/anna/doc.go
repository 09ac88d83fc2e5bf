// Package anna is a client for the Plugwise Anna thermostat gateway.
//
// The gateway exposes an XML document model at /core/domain_objects that
// describes appliances, locations, rules and point logs. Two incompatible
// generations of that model exist. Every read and write in this package first
// classifies the document with Detect and then applies the traversal rules of
// that generation only.
//
// # Usage Example
//
//	client := anna.NewClient(anna.Config{
//	    Host:     "192.168.1.20",
//	    Password: "abcdefgh",
//	})
//
//	doc, err := client.DomainObjects(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	temp, err := anna.Temperature(doc)
//	preset, err := anna.CurrentPreset(doc)
//
//	// Writes take the document they were decided on
//	if _, err := client.SetTemperature(ctx, doc, 20.5); err != nil {
//	    log.Fatal(err)
//	}
//
// # Documents
//
// A Document is parsed once per fetch and never modified. Extraction
// functions are pure functions of the document, so calling one twice on the
// same Document returns the same result. Nothing is cached between fetches.
//
// # Error Handling
//
// All failures are *GatewayError values and can be tested with errors.Is
// against ErrConnection, ErrNotFound, ErrRuleNotFound, ErrPresetNotFound,
// ErrCommandFailed and ErrParse. The library never retries; the Retryable
// flag is a hint for callers that want to.
//
// # Thread Safety
//
// Client has no mutable state after NewClient returns and may be shared.
package anna
