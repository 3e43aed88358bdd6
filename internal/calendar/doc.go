// Package calendar defines the remote calendar gateway the assistant talks
// to, along with its event model and two implementations.
//
// GoogleGateway talks to the Google Calendar v3 API with an OAuth2 client
// from the google package. CalDAVGateway talks to any CalDAV collection
// using basic auth. Both are usually wrapped with Instrument, which adds
// spans and metrics and turns failures into *apperrors.GatewayError.
//
// Example usage:
//
//	gw, err := calendar.NewGoogleGateway(ctx, httpClient, "Asia/Tokyo")
//	if err != nil {
//	    return err
//	}
//	gateway := calendar.Instrument(gw, instrumentation.BackendGoogle, metrics, logger)
//	events, err := gateway.GetEvents(ctx, dayStart, dayStart.AddDate(0, 0, 1))
//
// The calendartest subpackage provides an in-memory Gateway for tests.
package calendar
