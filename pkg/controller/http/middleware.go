package http

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/errutil"
)

type ctxTenantKey struct{}

// tenantMiddleware requires the X-Tenant-ID header on every API request and
// puts the validated tenant into the request context. Handlers never read the
// header themselves.
func tenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := types.TenantID(r.Header.Get("X-Tenant-ID"))
		if err := tenant.Validate(); err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "missing or invalid X-Tenant-ID header"), http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), ctxTenantKey{}, tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tenantFrom(ctx context.Context) types.TenantID {
	tenant, _ := ctx.Value(ctxTenantKey{}).(types.TenantID)
	return tenant
}
