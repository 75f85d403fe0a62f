package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor Actor, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	role, err := normalizeRole(actor.Role)
	if err != nil {
		return err
	}
	roleName := "role:" + role

	subject := roleName
	if actor.ID != nil {
		subject = fmt.Sprintf("user:%d", *actor.ID)
		if err := s.ensureGrouping(subject, roleName); err != nil {
			return err
		}
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("admin action denied",
			zap.String("subject", subject),
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func normalizeRole(raw string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(raw))
	switch role {
	case "":
		return RoleSystem, nil
	case RoleSystem, RoleSuperuser, RoleStaff:
		return role, nil
	default:
		return "", ErrInvalidRole
	}
}

// ensureGrouping keeps exactly one role link per user, following whatever
// role the auth host reports on the current request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(rule[0], rule[1]); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

var allActions = [][2]string{
	{ObjectProduct, ActionProductView},
	{ObjectProduct, ActionProductCreate},
	{ObjectProduct, ActionProductUpdate},
	{ObjectProduct, ActionProductStock},
	{ObjectProduct, ActionProductDuplicate},
	{ObjectOrder, ActionOrderView},
	{ObjectOrder, ActionOrderTransition},
	{ObjectOrder, ActionOrderReceipt},
	{ObjectOrderNote, ActionOrderNoteView},
	{ObjectOrderNote, ActionOrderNoteCreate},
	{ObjectOrderNote, ActionOrderNoteDelete},
	{ObjectCoupon, ActionCouponView},
	{ObjectCoupon, ActionCouponManage},
	{ObjectPaymentMethod, ActionPaymentMethodView},
	{ObjectPaymentMethod, ActionPaymentMethodManage},
	{ObjectReport, ActionReportView},
	{ObjectAuthEvent, ActionAuthEventReport},
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Staff run the day-to-day order desk
		{"role:staff", ObjectProduct, ActionProductView},
		{"role:staff", ObjectProduct, ActionProductUpdate},
		{"role:staff", ObjectProduct, ActionProductStock},
		{"role:staff", ObjectOrder, ActionOrderView},
		{"role:staff", ObjectOrder, ActionOrderTransition},
		{"role:staff", ObjectOrder, ActionOrderReceipt},
		{"role:staff", ObjectOrderNote, ActionOrderNoteView},
		{"role:staff", ObjectOrderNote, ActionOrderNoteCreate},
		{"role:staff", ObjectCoupon, ActionCouponView},
		{"role:staff", ObjectPaymentMethod, ActionPaymentMethodView},
	}
	for _, role := range []string{"role:superuser", "role:system"} {
		for _, pair := range allActions {
			policies = append(policies, []string{role, pair[0], pair[1]})
		}
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
