package nodes

import (
	"errors"

	"github.com/cloudwego/eino/schema"

	"github.com/novagestion/asesoria-server/internal/agent/model"
	errx "github.com/novagestion/asesoria-server/internal/core/error"
)

// ensureExtra returns msg.Extra, allocating it when missing.
func ensureExtra(msg *schema.Message) map[string]any {
	if msg.Extra == nil {
		msg.Extra = map[string]any{}
	}
	return msg.Extra
}

// RouteFromMessage extracts the route stamped by the formatter.
func RouteFromMessage(msg *schema.Message) (model.Route, bool) {
	if msg == nil || msg.Extra == nil {
		return model.Route{}, false
	}
	r, ok := msg.Extra[ExtraRouteKey].(model.Route)
	return r, ok
}

// calendarFailureText is the text the calendar handler embeds for err.
func calendarFailureText(err error) string {
	switch {
	case errors.Is(err, errx.ErrNotConfigured), errors.Is(err, errx.ErrUpstreamStatus):
		return CalendarUnavailable
	default:
		return CalendarErrorPrefix + failureDetail(err)
	}
}

// officeInfoFailureText is the text the office-info handler embeds for err.
func officeInfoFailureText(err error) string {
	switch {
	case errors.Is(err, errx.ErrNotConfigured):
		return OfficeInfoNotConfigured
	case errors.Is(err, errx.ErrUpstreamStatus):
		return OfficeInfoUnavailable
	default:
		return OfficeInfoErrorPrefix + failureDetail(err)
	}
}

// failureDetail drops the AppError envelope and keeps the underlying cause.
func failureDetail(err error) string {
	var appErr *errx.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		return appErr.Err.Error()
	}
	return err.Error()
}
