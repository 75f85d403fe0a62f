package authorization

import (
	"context"
	"testing"

	"github.com/smallbiznis/storefront/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (Service, *ServiceImpl) {
	t.Helper()
	enforcer, err := NewEnforcer(storetest.Open(t))
	require.NoError(t, err)
	svc := NewService(Params{Log: zaptest.NewLogger(t), Enforcer: enforcer})
	return svc, svc.(*ServiceImpl)
}

func TestSharedTokenActsAsSystem(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, pair := range allActions {
		assert.NoError(t, svc.Authorize(ctx, Actor{}, pair[0], pair[1]), pair[1])
	}
}

func TestStaffCannotManageSettingsOrReports(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	staff := Actor{Role: "Staff"}

	assert.NoError(t, svc.Authorize(ctx, staff, ObjectOrder, ActionOrderTransition))
	assert.NoError(t, svc.Authorize(ctx, staff, ObjectOrderNote, ActionOrderNoteCreate))

	assert.ErrorIs(t, svc.Authorize(ctx, staff, ObjectCoupon, ActionCouponManage), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, staff, ObjectPaymentMethod, ActionPaymentMethodManage), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, staff, ObjectReport, ActionReportView), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, staff, ObjectOrderNote, ActionOrderNoteDelete), ErrForbidden)
}

func TestUserRoleFollowsLatestRequest(t *testing.T) {
	svc, impl := newTestService(t)
	ctx := context.Background()
	id := int64(42)

	require.NoError(t, svc.Authorize(ctx, Actor{ID: &id, Role: RoleSuperuser}, ObjectReport, ActionReportView))

	err := svc.Authorize(ctx, Actor{ID: &id, Role: RoleStaff}, ObjectReport, ActionReportView)
	assert.ErrorIs(t, err, ErrForbidden)

	links, err := impl.enforcer.GetFilteredGroupingPolicy(0, "user:42")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "role:staff", links[0][1])
}

func TestAuthorizeRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, Actor{Role: "owner"}, ObjectOrder, ActionOrderView), ErrInvalidRole)
	assert.ErrorIs(t, svc.Authorize(ctx, Actor{}, " ", ActionOrderView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, Actor{}, ObjectOrder, ""), ErrInvalidAction)
}

func TestSeedPoliciesIsIdempotent(t *testing.T) {
	db := storetest.Open(t)
	_, err := NewEnforcer(db)
	require.NoError(t, err)

	var first int64
	require.NoError(t, db.Table("casbin_rule").Count(&first).Error)

	_, err = NewEnforcer(db)
	require.NoError(t, err)

	var second int64
	require.NoError(t, db.Table("casbin_rule").Count(&second).Error)
	assert.Equal(t, first, second)
	assert.Positive(t, first)
}
