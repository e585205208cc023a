package nodes

import (
	"context"

	"github.com/novagestion/asesoria-server/internal/agent/model"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

// UnknownSubCategoryFallback is where a general information question goes
// when the sub-router cannot tell calendar from office questions.
const UnknownSubCategoryFallback = NodeOfficeInfo

// RoutePrimary maps the Level-1 label onto the next node. Anything but
// general information, including a missing label, goes to freeform chat.
func RoutePrimary(c *model.PrimaryCategory) string {
	if c == nil {
		return NodeFreeformChat
	}
	switch *c {
	case model.PrimaryGeneralInfo:
		return NodeInfoRouter
	case model.PrimaryOther:
		return NodeFreeformChat
	default:
		return NodeFreeformChat
	}
}

// RouteSub maps the Level-2 label onto a data handler.
func RouteSub(c *model.SubCategory) string {
	if c == nil {
		return UnknownSubCategoryFallback
	}
	switch *c {
	case model.SubCalendar:
		return NodeCalendar
	case model.SubOfficeInfo:
		return NodeOfficeInfo
	case model.SubUnknown:
		return UnknownSubCategoryFallback
	default:
		return UnknownSubCategoryFallback
	}
}

// PrimaryBranchTargets lists every node RoutePrimary can return.
func PrimaryBranchTargets() map[string]bool {
	return map[string]bool{
		NodeInfoRouter:   true,
		NodeFreeformChat: true,
	}
}

// SubBranchTargets lists every node RouteSub can return.
func SubBranchTargets() map[string]bool {
	return map[string]bool{
		NodeCalendar:   true,
		NodeOfficeInfo: true,
	}
}

// NewPrimaryCondition creates the branch condition after the primary router
func NewPrimaryCondition() func(context.Context, model.Classification[model.PrimaryCategory]) (string, error) {
	return func(ctx context.Context, in model.Classification[model.PrimaryCategory]) (string, error) {
		label := in.Label
		next := RoutePrimary(&label)
		logx.Debug().Str("primary_category", string(label)).Str("next", next).Msg("Primary route decided")
		return next, nil
	}
}

// NewSubCondition creates the branch condition after the info router
func NewSubCondition() func(context.Context, model.Classification[model.SubCategory]) (string, error) {
	return func(ctx context.Context, in model.Classification[model.SubCategory]) (string, error) {
		label := in.Label
		next := RouteSub(&label)
		logx.Debug().Str("sub_category", string(label)).Str("next", next).Msg("Sub route decided")
		return next, nil
	}
}
