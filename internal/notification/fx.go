package notification

import (
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(NewPublisher),
	fx.Provide(
		New,
		func(n *Notifier) orderdomain.Notifier { return n },
	),
)
