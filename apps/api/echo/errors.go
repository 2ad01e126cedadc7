package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
)

const (
	msgTokenRequired = "Access token required"
	msgTokenExpired  = "Token expired"
	msgInvalidToken  = "Invalid token"
	msgUserNotFound  = "User not found"
)

var (
	errUnauthorized   = core.NewAuthenticationError(msgTokenRequired)
	errAdminRequired  = core.NewForbiddenError("Admin access required")
	errSuperRequired  = core.NewForbiddenError("Super admin access required")
	errHttpForbidden  = core.NewForbiddenError("permission denied")
	errSubjectMissing = errors.New("session subject not found in echo.Context")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		if errors.Cause(err) == core.ErrInvalidOrExpiredCode {
			code = http.StatusBadRequest
			message = core.ErrInvalidOrExpiredCode.Error()
		} else {
			switch origErr := errors.Cause(err).(type) {
			case *echo.HTTPError:
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				code = http.StatusBadRequest
				message = core.TranslateValidationErrors(origErr, translator)
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			case *core.ConflictError:
				code = http.StatusConflict
				message = origErr.Message
			case *core.NotFoundError:
				code = http.StatusNotFound
				message = origErr.Message
			case *core.AuthenticationError:
				code = http.StatusUnauthorized
				message = origErr.Message
			case *core.ForbiddenError:
				code = http.StatusForbidden
				message = origErr.Message
			default: // delivery, store and any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				fields := map[string]interface{}{
					"method": ctx.Request().Method,
					"path":   ctx.Path(),
				}
				if res, ok := ctx.Get(contextSubjectKey).(account.Resolution); ok {
					logger.Error(msg, errors.Wrap(err, msg), fields, subjectOf(res))
				} else {
					logger.Error(msg, errors.Wrap(err, msg), fields)
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		} else if m, ok := message.(map[string]string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// subjectOf returns the logged subject, as expected by core.Logger.
func subjectOf(res account.Resolution) interface{} {
	if res.Kind == account.KindPrivileged {
		return res.Admin
	}
	return res.Account
}
