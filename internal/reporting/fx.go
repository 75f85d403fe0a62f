package reporting

import (
	"github.com/smallbiznis/storefront/internal/reporting/repository"
	"github.com/smallbiznis/storefront/internal/reporting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reporting.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
