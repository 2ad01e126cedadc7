package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edugate/core"
	"github.com/trezcool/edugate/core/account"
	"github.com/trezcool/edugate/core/auth"
)

type adminApi struct {
	accounts *account.Service
	login    *auth.Login
	validate *validator.Validate
	users    *userApi
}

func registerAdminAPI(g *echo.Group, authed echo.MiddlewareFunc, deps *Deps) {
	api := adminApi{
		accounts: deps.Accounts,
		login:    deps.Login,
		validate: deps.Validate,
		users:    &userApi{accounts: deps.Accounts, validate: deps.Validate},
	}
	admin, super := adminMiddleware(false), adminMiddleware(true)

	// un-authed endpoints
	g.POST("/admin/login", api.adminLogin)
	g.POST("/isadmin", api.isAdmin)
	g.POST("/check-superadmin", api.checkSuperAdmin)

	// authed endpoints
	g.GET("/admins", api.query, authed, admin)
	g.POST("/admins", api.create, authed, super)
	g.DELETE("/admins", api.destroy, authed, super)
	g.POST("/admin/find-user", api.users.find, authed, super)
	g.DELETE("/admin/delete-user", api.deleteUser, authed, super)
}

// Handlers

func (api *adminApi) adminLogin(ctx echo.Context) error {
	var data auth.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	sess, err := api.login.AdminLogin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "logging admin in")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{Message: "Login successful", Session: sess})
}

func (api *adminApi) getAdmin(ctx echo.Context) (account.Admin, bool, error) {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return account.Admin{}, false, errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return account.Admin{}, false, err
	}

	adm, err := api.accounts.GetAdminByEmail(ctx.Request().Context(), data.Email)
	if err != nil {
		if errors.Cause(err) == account.ErrAdminNotFound {
			return account.Admin{}, false, nil
		}
		return account.Admin{}, false, core.NewStoreError(err, "finding admin by email")
	}
	return adm, true, nil
}

func (api *adminApi) isAdmin(ctx echo.Context) error {
	_, found, err := api.getAdmin(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AdminCheckResponse{IsAdmin: found})
}

func (api *adminApi) checkSuperAdmin(ctx echo.Context) error {
	adm, found, err := api.getAdmin(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AdminCheckResponse{IsAdmin: found, IsSuperAdmin: found && adm.IsSuperAdmin})
}

func (api *adminApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	admins, err := api.accounts.QueryAdmins(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return core.NewStoreError(err, "querying admins")
	}
	if admins == nil {
		admins = []account.Admin{}
	}
	return ctx.JSON(http.StatusOK, admins)
}

func (api *adminApi) create(ctx echo.Context) error {
	var data account.NewAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAdmin")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	adm, err := api.accounts.AddAdmin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding admin")
	}
	return ctx.JSON(http.StatusCreated, adm)
}

func (api *adminApi) destroy(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// Say No to Suicide! a super admin cannot remove themselves
	res, err := getContextSubject(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context subject")
	}
	if res.Admin.Email == data.Email {
		return errHttpForbidden
	}

	if err := api.accounts.RemoveAdmin(ctx.Request().Context(), data.Email); err != nil {
		if errors.Cause(err) == account.ErrAdminNotFound {
			return core.NewNotFoundError(account.ErrAdminNotFound.Error())
		}
		return core.NewStoreError(err, "removing admin")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Admin removed successfully"})
}

func (api *adminApi) deleteUser(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return deleteAccount(ctx, api.accounts, data.Email)
}

type AdminCheckResponse struct {
	IsAdmin      bool `json:"is_admin"`
	IsSuperAdmin bool `json:"is_super_admin"`
}
