package miniusers

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// ClaimsContextKey is where RequireAuth stashes the verified claim.
const ClaimsContextKey = "claims"

const bearerScheme = "Bearer"

// APIController wires the authenticator and the directory service to the
// REST surface.
type APIController struct {
	Debug     bool
	Logger    Logger
	Auth      Authenticator
	Directory *Directory
}

type APIControllerOption func(*APIController) *APIController

func NewAPIController(auth Authenticator, directory *Directory, opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger:    defLogger{},
		Auth:      auth,
		Directory: directory,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auth == nil {
		panic("Missing Authenticator in api controller...")
	}

	if c.Directory == nil {
		panic("Missing Directory in api controller...")
	}

	return c
}

func WithControllerLogger(l Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Logger = l
		return c
	}
}

func WithControllerDebug(debug bool) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Debug = debug
		return c
	}
}

// RegisterAPIRoutes mounts the REST surface on the given app.
func RegisterAPIRoutes(app *fiber.App, controller *APIController) {
	api := app.Group("/api")

	api.Get("/health", controller.HealthCheck)

	api.Post("/auth/register", controller.RegisterPost)
	api.Post("/auth/login", controller.LoginPost)

	users := api.Group("/users", controller.RequireAuth)
	users.Get("/", controller.UsersList)
	users.Post("/", controller.UsersCreate)
	users.Put("/:id", controller.UsersUpdate)
	users.Delete("/:id", controller.UsersDelete)
}

// RequireAuth extracts the bearer credential from the Authorization
// header, verifies it, and stores the claim in the request locals.
func (a *APIController) RequireAuth(c *fiber.Ctx) error {
	raw, err := extractBearerToken(c)
	if err != nil {
		return err
	}

	claims, err := a.Auth.VerifyToken(raw)
	if err != nil {
		return err
	}

	c.Locals(ClaimsContextKey, claims)
	return c.Next()
}

// ClaimsFromCtx returns the claim stored by RequireAuth.
func ClaimsFromCtx(c *fiber.Ctx) (*Claims, error) {
	claims, ok := c.Locals(ClaimsContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrMissingToken
	}
	return claims, nil
}

func extractBearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) || parts[1] == "" {
		return "", ErrMissingToken
	}

	return parts[1], nil
}

func (a *APIController) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// RegisterRequest is the open registration payload
type RegisterRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *APIController) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return ErrMissingFields
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("register validate payload", "error", err)
		return ErrMissingFields
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	record, err := a.Directory.Create(c.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    record.ID,
		"email": record.Email,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *APIController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ErrInvalidCredentials
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("login validate payload", "error", err)
		return ErrInvalidCredentials
	}

	token, err := a.Auth.IssueToken(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"token": token})
}

func (a *APIController) UsersList(c *fiber.Ctx) error {
	records, err := a.Directory.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

// CreateUserRequest is the directory create payload; password is optional
type CreateUserRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (a *APIController) UsersCreate(c *fiber.Ctx) error {
	payload := new(CreateUserRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("users create parse payload", "error", err)
		return ErrMissingFields
	}

	record, err := a.Directory.Create(c.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    record.ID,
		"name":  record.Name,
		"email": record.Email,
	})
}

func (a *APIController) UsersUpdate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrNotFound
	}

	patch := new(UserPatch)
	if err := c.BodyParser(patch); err != nil {
		a.Logger.Error("users update parse payload", "error", err)
		return errors.New("invalid payload", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	if a.Debug {
		fmt.Println("======= USERS UPDATE ======")
		fmt.Println(print.MaybePrettyJSON(patch))
		fmt.Println("===========================")
	}

	record, err := a.Directory.Update(c.Context(), id, *patch)
	if err != nil {
		return err
	}

	return c.JSON(record)
}

func (a *APIController) UsersDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrNotFound
	}

	if err := a.Directory.Delete(c.Context(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// APIErrorHandler maps rich errors to their HTTP status with a single
// error string body; anything unrecognized becomes a plain 500.
func APIErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			status := richErr.Code
			if status < fiber.StatusBadRequest {
				status = fiber.StatusInternalServerError
			}
			if status >= fiber.StatusInternalServerError {
				logger.Error("api error", "error", err, "path", c.Path())
			}
			return c.Status(status).JSON(fiber.Map{"error": richErr.Message})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		logger.Error("unhandled api error", "error", err, "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
