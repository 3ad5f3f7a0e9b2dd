package ws

import (
	"context"
	"net/http"

	"github.com/webitel/im-delivery-service/internal/domain/model"
)

// PrincipalHeader is the boundary this core expects its collaborator to
// fill in once it has validated the caller: spec.md §1 treats identity
// as "already-validated... on every request" and out of scope for this
// service to establish itself.
const PrincipalHeader = "X-Principal"

// PrincipalMiddleware reads PrincipalHeader and stores it in the
// request context for Principal to retrieve. A missing header is left
// for each handler to reject on its own terms (401/Unauthorized).
func PrincipalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.Header.Get(PrincipalHeader); p != "" {
			r = r.WithContext(context.WithValue(r.Context(), principalKey{}, model.Principal(p)))
		}
		next.ServeHTTP(w, r)
	})
}
