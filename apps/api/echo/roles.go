package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/auth"
)

// roleApi serves the registration endpoints of a single role.
type roleApi struct {
	role      account.Role
	accounts  *account.Service
	registrar *auth.Registrar
	validate  *validator.Validate
}

func registerRoleAPI(g *echo.Group, deps *Deps) {
	for _, role := range account.Roles {
		api := roleApi{
			role:      role,
			accounts:  deps.Accounts,
			registrar: deps.Registrar,
			validate:  deps.Validate,
		}

		rg := g.Group("/" + strings.ToLower(string(role)))
		rg.POST("/send-otp", api.sendOtp)
		rg.POST("/register", api.register)
		if role != account.RoleParent {
			rg.POST("/find", api.find)
		}
	}
}

// Handlers

func (api *roleApi) sendOtp(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := api.registrar.RequestCode(ctx.Request().Context(), api.role, data.Email); err != nil {
		return errors.Wrapf(err, "requesting %s registration code", api.role)
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "OTP sent to email"})
}

func (api *roleApi) register(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	data.Role = api.role // the route decides
	return completeRegistration(ctx, api.registrar, data)
}

func (api *roleApi) find(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acc, err := api.accounts.GetByEmailAndRole(ctx.Request().Context(), data.Email, api.role)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return core.NewNotFoundError(string(api.role) + " not found")
		}
		return core.NewStoreError(err, "finding account by email and role")
	}
	profile := acc.Profile()
	return ctx.JSON(http.StatusOK, FindResponse{Type: "user", User: &profile})
}
