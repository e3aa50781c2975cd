package app

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-errors/errors"

	"github.com/km-arc/straw/framework/config"
	"github.com/km-arc/straw/framework/container"
	"github.com/km-arc/straw/framework/logging"
	"github.com/km-arc/straw/framework/providers"
	"github.com/km-arc/straw/framework/routing"
)

const version = "0.1.0"

// Application is the top-level application container.
// It embeds the IoC Container and ProviderRegistry so user code can
// call app.Bind(), app.Singleton(), app.Register() directly,
// exactly like $app in Laravel's bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	basePath string
	log      *logging.Logger
}

// New creates the application, pins it as the global container and registers
// the framework providers (config, logging, http, routing).
func New(envFiles ...string) (*Application, error) {
	c := container.New()
	registry := container.NewProviderRegistry(c)

	app := &Application{
		Container: c,
		Providers: registry,
		log:       logging.NewLogger("App"),
	}
	c.Instance("app", app)
	container.SetInstance(c)

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	app.SetBasePath(wd)

	// Same order as Laravel: config first, everything else reads it
	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{EnvFiles: envFiles},
		&providers.LoggingServiceProvider{},
		&providers.HTTPServiceProvider{},
		&providers.RoutingServiceProvider{},
	} {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// SetBasePath sets the application root and binds the derived paths:
// "path.base", "path.config", "path.public" and "path.storage".
//
//	// Laravel: $app->setBasePath(__DIR__.'/..')
func (a *Application) SetBasePath(basePath string) *Application {
	a.basePath = filepath.Clean(basePath)
	a.Instance("path.base", a.basePath)
	a.Instance("path.config", a.Path("config"))
	a.Instance("path.public", a.Path("public"))
	a.Instance("path.storage", a.Path("storage"))
	return a
}

// BasePath returns the application root.
func (a *Application) BasePath() string { return a.basePath }

// Path joins elem onto the base path.
func (a *Application) Path(elem ...string) string {
	return filepath.Join(append([]string{a.basePath}, elem...)...)
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.MustResolve[*config.Config](a.Container, "config")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.MustResolve[*routing.Router](a.Container, "router")
}

// Run boots the application (if needed) and starts the HTTP server.
func (a *Application) Run() error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	cfg := a.Config()
	addr := ":" + cfg.App.Port
	a.log.Infof("%s running on http://localhost%s [%s]", cfg.App.Name, addr, cfg.App.Env)

	if err := http.ListenAndServe(addr, a.Router()); err != nil {
		a.log.Errorf("server error: %s", err)
		return errors.Wrap(err, 0)
	}
	return nil
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return version }
