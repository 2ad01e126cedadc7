package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/session"
)

const (
	contextClaimsKey  = "claims"
	contextSubjectKey = "subject"
	bearerScheme      = "bearer"
)

func bearerToken(req *http.Request) (string, bool) {
	auth := req.Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(strings.TrimSpace(auth), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// sessionMiddleware verifies the bearer token and loads its subject from either store.
func sessionMiddleware(issuer *session.Issuer, accounts *account.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, ok := bearerToken(ctx.Request())
			if !ok {
				return errUnauthorized
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				if err == session.ErrTokenExpired {
					return core.NewAuthenticationError(msgTokenExpired)
				}
				return core.NewAuthenticationError(msgInvalidToken)
			}

			res, err := accounts.ResolveID(ctx.Request().Context(), claims.SubjectID())
			if err != nil {
				return errors.Wrap(err, "resolving token subject")
			}
			if res.Kind == account.KindNone {
				return core.NewAuthenticationError(msgUserNotFound)
			}

			ctx.Set(contextClaimsKey, *claims)
			ctx.Set(contextSubjectKey, res)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (session.Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(session.Claims); ok {
		return claims, nil
	}
	return session.Claims{}, errUnauthorized
}

func getContextSubject(ctx echo.Context) (account.Resolution, error) {
	if res, ok := ctx.Get(contextSubjectKey).(account.Resolution); ok {
		return res, nil
	}
	return account.Resolution{}, errSubjectMissing
}

// adminMiddleware must run after sessionMiddleware.
// Super status is read from the stored subject, never from the request body.
func adminMiddleware(superOnly bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			res, err := getContextSubject(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context subject")
			}
			if res.Kind != account.KindPrivileged {
				return errAdminRequired
			}
			if superOnly && !res.IsSuper() {
				return errSuperRequired
			}
			return next(ctx)
		}
	}
}
