package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formcraft-backend/internal/platform/apierr"
)

var errInternal = errors.New("internal server error")

// RespondAPIError answers with the status and code carried by an *apierr.Error in err's
// chain. Anything else is a 500 whose message is not echoed back.
func RespondAPIError(c *gin.Context, err error) {
	if ae, ok := apierr.From(err); ok {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := ae.Code
		if code == "" {
			code = "error"
		}
		RespondError(c, status, code, ae.Err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", errInternal)
}
