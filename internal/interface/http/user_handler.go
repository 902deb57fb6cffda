package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/nordveldt/userbase/internal/application"
	repo "github.com/nordveldt/userbase/internal/domain/repository"
	"github.com/nordveldt/userbase/pkg/response"
	"github.com/nordveldt/userbase/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type contactRequest struct {
	Type  string `json:"type" binding:"required"`
	Value string `json:"value" binding:"required"`
}

type createUserRequest struct {
	Realname string           `json:"realname" binding:"required"`
	Role     string           `json:"role" binding:"required"`
	Email    string           `json:"email" binding:"omitempty,email"`
	Password string           `json:"password" binding:"required,pwd"`
	Contacts []contactRequest `json:"contacts" binding:"omitempty,dive"`
}

type importUserRequest struct {
	Realname string           `json:"realname" binding:"required"`
	Role     string           `json:"role" binding:"required"`
	Email    string           `json:"email" binding:"omitempty,email"`
	Password string           `json:"password" binding:"omitempty,pwd"`
	Contacts []contactRequest `json:"contacts" binding:"omitempty,dive"`
}

type importRequest struct {
	Users []importUserRequest `json:"users" binding:"required,min=1,dive"`
}

type updateUserRequest struct {
	Realname string `json:"realname"`
	Role     string `json:"role"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,pwd"`
}

func contactInputs(in []contactRequest) []userapp.ContactInput {
	out := make([]userapp.ContactInput, 0, len(in))
	for _, c := range in {
		out = append(out, userapp.ContactInput{Type: c.Type, Value: c.Value})
	}
	return out
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Realname: req.Realname,
		Role:     req.Role,
		Email:    req.Email,
		Password: req.Password,
		Contacts: contactInputs(req.Contacts),
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("create user failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to create user", nil)
		return
	}
	response.Success(c, http.StatusCreated, userapp.NewUserView(u), "user created", nil)
}

// Import bulk-creates users from one payload. Ids come back in input order,
// so callers can correlate rows positionally.
func (h *UserHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	ins := make([]userapp.RegisterInput, 0, len(req.Users))
	for _, ur := range req.Users {
		ins = append(ins, userapp.RegisterInput{
			Realname: ur.Realname,
			Role:     ur.Role,
			Email:    ur.Email,
			Password: ur.Password,
			Contacts: contactInputs(ur.Contacts),
		})
	}
	ids, err := h.Svc.Import(c.Request.Context(), ins)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("count", len(ins)).Error("import users failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to import users", nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"ids": ids}, "users imported", map[string]any{"count": len(ids)})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	v, err := h.Svc.GetUserView(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to load user", nil)
		return
	}
	response.Success(c, http.StatusOK, v, "user", nil)
}

func (h *UserHandler) GetByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.Error[any](c, http.StatusBadRequest, "email query parameter is required", nil)
		return
	}
	u, err := h.Svc.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, repo.ErrTooManyRows):
			response.Error[any](c, http.StatusConflict, "email resolves to more than one user", nil)
		default:
			response.Error[any](c, http.StatusInternalServerError, "failed to load user", nil)
		}
		return
	}
	response.Success(c, http.StatusOK, userapp.NewUserView(u), "user", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateUser(c.Request.Context(), id, userapp.UpdateUserInput{
		Realname: req.Realname,
		Role:     req.Role,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", id).Error("update user failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to update user", nil)
		return
	}
	response.Success(c, http.StatusOK, userapp.NewUserView(u), "user updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Svc.RemoveUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", id).Error("delete user failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to delete user", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "user deleted", nil)
}

// List searches users. q matches realname or any contact value; role takes
// one label or a comma-separated list; limit/offset page the result.
func (h *UserHandler) List(c *gin.Context) {
	filter := repo.SearchFilter{
		Query: c.Query("q"),
		Roles: repo.SplitRoles(c.Query("role")),
	}
	page := repo.Page{
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}
	res, err := h.Svc.SearchUsers(c.Request.Context(), filter, page)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("search users failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "failed to search users", nil)
		return
	}
	response.Success(c, http.StatusOK, res.Items, "users", map[string]any{
		"total":  res.Total,
		"limit":  res.Limit,
		"offset": res.Offset,
	})
}

func (h *UserHandler) Count(c *gin.Context) {
	filters := map[string]any{}
	if role := c.Query("role"); role != "" {
		filters["role"] = role
	}
	n, err := h.Svc.Count(c.Request.Context(), filters)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to count users", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"total": n}, "user count", nil)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid user id", nil)
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
