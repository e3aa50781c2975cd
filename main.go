package main

import (
	"fmt"
	"os"

	"github.com/km-arc/straw/framework/app"
	"github.com/km-arc/straw/framework/container"
	gohttp "github.com/km-arc/straw/framework/http"
	"github.com/km-arc/straw/framework/logging"
	"github.com/km-arc/straw/framework/routing"
)

// ── Domain ──────────────────────────────────────────────────────────────────

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserRepository is bound to an in-memory implementation by AppServiceProvider.
type UserRepository interface {
	All() []User
	Find(id string) (User, bool)
	Add(name, email string) User
}

type memoryUsers struct {
	users []User
}

func (m *memoryUsers) All() []User { return m.users }

func (m *memoryUsers) Find(id string) (User, bool) {
	for _, u := range m.users {
		if fmt.Sprint(u.ID) == id {
			return u, true
		}
	}
	return User{}, false
}

func (m *memoryUsers) Add(name, email string) User {
	u := User{ID: len(m.users) + 1, Name: name, Email: email}
	m.users = append(m.users, u)
	return u
}

// UserController is autowired: Users comes from the UserRepository binding,
// PerPage from its default.
type UserController struct {
	Users   UserRepository
	PerPage int `default:"15"`
}

func (c *UserController) Index(*gohttp.ServerRequest) (*gohttp.Response, error) {
	return gohttp.Success(c.Users.All())
}

func (c *UserController) Show(req *gohttp.ServerRequest) (*gohttp.Response, error) {
	user, ok := c.Users.Find(req.RouteParam("id"))
	if !ok {
		return gohttp.NotFound()
	}
	return gohttp.Success(user)
}

func (c *UserController) Store(req *gohttp.ServerRequest) (*gohttp.Response, error) {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := req.Bind(&body); err != nil {
		return gohttp.ErrorResponse(400, err.Error())
	}

	errs := map[string][]string{}
	if body.Name == "" {
		errs["name"] = []string{"The name field is required."}
	}
	if body.Email == "" {
		errs["email"] = []string{"The email field is required."}
	}
	if len(errs) > 0 {
		return gohttp.ValidationErrors(errs)
	}
	return gohttp.Created(c.Users.Add(body.Name, body.Email))
}

// ── Providers ───────────────────────────────────────────────────────────────

type AppServiceProvider struct {
	container.BaseProvider
}

func (p *AppServiceProvider) Register(c *container.Container) error {
	if err := c.Register((*UserRepository)(nil), UserController{}); err != nil {
		return err
	}
	return c.Singleton(string(container.TypeOf[UserRepository]()),
		container.Factory(func(*container.Container, container.Parameters) (any, error) {
			return &memoryUsers{users: []User{{ID: 1, Name: "Alice"}, {ID: 2, Name: "Bob"}}}, nil
		}))
}

// ── Routes ──────────────────────────────────────────────────────────────────

func routes(application *app.Application) error {
	users, err := container.Resolve[*UserController](application.Container, string(container.TypeOf[UserController]()))
	if err != nil {
		return err
	}

	r := application.Router()
	r.Get("/", func(*gohttp.ServerRequest) (*gohttp.Response, error) {
		return gohttp.Success(map[string]any{"message": "Welcome to Straw!"})
	})

	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users", users.Index)
		api.Post("/users", users.Store)
		api.Get("/users/{id}", users.Show)
	})

	r.Group(func(protected *routing.Router) {
		protected.Guard(func(req *gohttp.ServerRequest) (*gohttp.Response, error) {
			if req.BearerToken() == "" {
				return gohttp.Unauthorized()
			}
			return nil, nil
		})
		protected.Get("/profile", func(*gohttp.ServerRequest) (*gohttp.Response, error) {
			return gohttp.Success(map[string]any{"user": "authenticated"})
		})
	})

	r.Static("/public", application.Path("public"))
	return nil
}

func main() {
	application, err := app.New() // loads .env automatically
	if err == nil {
		err = application.Register(&AppServiceProvider{})
	}
	if err == nil {
		err = application.Boot()
	}
	if err == nil {
		err = routes(application)
	}
	if err == nil {
		err = application.Run()
	}
	if err != nil {
		logging.NewLogger("Main").Errorf("%s", err)
		_ = logging.Close()
		os.Exit(1)
	}
}
