package providers

import (
	"github.com/km-arc/straw/framework/config"
	"github.com/km-arc/straw/framework/container"
	gohttp "github.com/km-arc/straw/framework/http"
	"github.com/km-arc/straw/framework/logging"
	"github.com/km-arc/straw/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env and
// binds it into the container.
//
// Bound abstracts:
//   - "config"            → *config.Config
//   - TypeOf[config.Config] (autowired *config.Config parameters)
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->singleton('config', fn() => new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	envFiles := p.EnvFiles
	err := app.Singleton("config", container.Factory(func(*container.Container, container.Parameters) (any, error) {
		return config.Load(envFiles...), nil
	}))
	if err != nil {
		return err
	}
	return app.Alias("config", string(container.TypeOf[config.Config]()))
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider installs the log handlers from the "config" binding
// and hands out named loggers.
//
// Bound abstracts:
//   - "log" → *logging.Logger, named by the "name" parameter (default "App")
//
//	log, err := app.MakeWith("log", container.Parameters{"name": "Billing"})
type LoggingServiceProvider struct {
	container.BaseProvider
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	return app.Bind("log", container.Factory(func(_ *container.Container, params container.Parameters) (any, error) {
		name, _ := params["name"].(string)
		if name == "" {
			name = "App"
		}
		return logging.NewLogger(name), nil
	}))
}

func (p *LoggingServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	return logging.InitializeLogging(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
}

// ── HTTPServiceProvider ───────────────────────────────────────────────────────

// HTTPServiceProvider registers the message factory. It is deferred: nothing
// is built until the factory is first resolved.
//
// Bound abstracts:
//   - "http.factory"         → *gohttp.Factory
//   - TypeOf[gohttp.Factory] (autowired *gohttp.Factory parameters)
type HTTPServiceProvider struct {
	container.BaseProvider
}

var factoryType = string(container.TypeOf[gohttp.Factory]())

func (p *HTTPServiceProvider) Register(app *container.Container) error {
	err := app.Singleton("http.factory", container.Factory(func(c *container.Container, _ container.Parameters) (any, error) {
		cfg, err := container.Resolve[*config.Config](c, "config")
		if err != nil {
			return nil, err
		}
		return gohttp.NewFactory(cfg.HTTP.MaxUploadSize), nil
	}))
	if err != nil {
		return err
	}
	return app.Singleton(factoryType, container.TypeName("http.factory"))
}

func (p *HTTPServiceProvider) Provides() []string { return []string{"http.factory", factoryType} }
func (p *HTTPServiceProvider) IsDeferred() bool   { return true }

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router.
//
// Bound abstracts:
//   - "router"              → *routing.Router
//   - TypeOf[routing.Router]
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	err := app.Singleton("router", container.Factory(func(c *container.Container, _ container.Parameters) (any, error) {
		factory, err := container.Resolve[*gohttp.Factory](c, "http.factory")
		if err != nil {
			return nil, err
		}
		return routing.New(factory), nil
	}))
	if err != nil {
		return err
	}
	return app.Singleton(string(container.TypeOf[routing.Router]()), container.TypeName("router"))
}
