package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
)

type profileApi struct {
	accounts *account.Service
	validate *validator.Validate
}

func registerProfileAPI(g *echo.Group, authed echo.MiddlewareFunc, deps *Deps) {
	api := profileApi{accounts: deps.Accounts, validate: deps.Validate}

	g.GET("/verify-token", api.verifyToken, authed)
	g.GET("/profile", api.retrieve, authed)
	g.PUT("/profile", api.update, authed)
}

// Handlers

func (api *profileApi) verifyToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	res, err := getContextSubject(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context subject")
	}

	resp := TokenResponse{Valid: true, Role: claims.Role}
	if res.Kind == account.KindPrivileged {
		summary := res.Admin.Summary()
		resp.Admin = &summary
	} else {
		summary := res.Account.Summary()
		resp.User = &summary
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	res, err := getContextSubject(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context subject")
	}
	if res.Kind == account.KindPrivileged {
		return ctx.JSON(http.StatusOK, res.Admin.Profile())
	}
	return ctx.JSON(http.StatusOK, res.Account.Profile())
}

func (api *profileApi) update(ctx echo.Context) error {
	res, err := getContextSubject(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context subject")
	}

	var data account.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	if res.Kind == account.KindPrivileged {
		adm, err := api.accounts.UpdateAdminProfile(rctx, res.Admin, data)
		if err != nil {
			return core.NewStoreError(err, "updating admin profile")
		}
		return ctx.JSON(http.StatusOK, adm.Profile())
	}

	acc, err := api.accounts.UpdateProfile(rctx, res.Account, data)
	if err != nil {
		return core.NewStoreError(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, acc.Profile())
}

type TokenResponse struct {
	Valid bool                  `json:"valid"`
	Role  string                `json:"role"`
	User  *account.Summary      `json:"user,omitempty"`
	Admin *account.AdminSummary `json:"admin,omitempty"`
}
