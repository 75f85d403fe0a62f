package authorization

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleSuperuser = "superuser"
	RoleStaff     = "staff"
)

const (
	ObjectProduct       = "product"
	ObjectOrder         = "order"
	ObjectOrderNote     = "order_note"
	ObjectCoupon        = "coupon"
	ObjectPaymentMethod = "payment_method"
	ObjectReport        = "report"
	ObjectAuthEvent     = "auth_event"
)

const (
	ActionProductView      = "product.view"
	ActionProductCreate    = "product.create"
	ActionProductUpdate    = "product.update"
	ActionProductStock     = "product.stock"
	ActionProductDuplicate = "product.duplicate"

	ActionOrderView       = "order.view"
	ActionOrderTransition = "order.transition"
	ActionOrderReceipt    = "order.receipt"

	ActionOrderNoteView   = "order_note.view"
	ActionOrderNoteCreate = "order_note.create"
	ActionOrderNoteDelete = "order_note.delete"

	ActionCouponView   = "coupon.view"
	ActionCouponManage = "coupon.manage"

	ActionPaymentMethodView   = "payment_method.view"
	ActionPaymentMethodManage = "payment_method.manage"

	ActionReportView = "report.view"

	ActionAuthEventReport = "auth_event.report"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Actor is the back-office user behind an admin request. A nil ID means the
// caller holds only the shared admin token.
type Actor struct {
	ID   *int64
	Role string
}

type Service interface {
	Authorize(ctx context.Context, actor Actor, object string, action string) error
}
