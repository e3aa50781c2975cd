package routing

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gohttp "github.com/km-arc/straw/framework/http"
	"github.com/km-arc/straw/framework/logging"
)

// Handler turns a captured request into a response. A returned error is
// logged and answered with a 500 JSON response.
type Handler func(req *gohttp.ServerRequest) (*gohttp.Response, error)

// Router wraps chi.Router with Laravel-style helpers. Every route receives
// the request as a *gohttp.ServerRequest with route params as attributes.
type Router struct {
	mux     chi.Router
	factory *gohttp.Factory
	log     *logging.Logger
}

// New creates a Router with sane defaults (RealIP, Logger, Recoverer). A nil
// factory uses the default upload limit.
func New(factory *gohttp.Factory) *Router {
	if factory == nil {
		factory = gohttp.NewFactory(0)
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	return &Router{mux: r, factory: factory, log: logging.NewLogger("Router")}
}

func (r *Router) with(mx chi.Router) *Router {
	return &Router{mux: mx, factory: r.factory, log: r.log}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h Handler)    { r.mux.Get(pattern, r.adapt(h)) }
func (r *Router) Post(pattern string, h Handler)   { r.mux.Post(pattern, r.adapt(h)) }
func (r *Router) Put(pattern string, h Handler)    { r.mux.Put(pattern, r.adapt(h)) }
func (r *Router) Patch(pattern string, h Handler)  { r.mux.Patch(pattern, r.adapt(h)) }
func (r *Router) Delete(pattern string, h Handler) { r.mux.Delete(pattern, r.adapt(h)) }

// Any registers a handler for all common HTTP methods.
func (r *Router) Any(pattern string, h Handler) {
	hf := r.adapt(h)
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"} {
		r.mux.Method(m, pattern, hf)
	}
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group. Laravel: Route::group([], fn)
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(r.with(mx))
	})
}

// Prefix creates a sub-router with a URL prefix. Laravel: Route::prefix('/api')
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(r.with(mx))
	})
}

// ── Middleware ───────────────────────────────────────────────────────────────

// Middleware adds one or more net/http middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// Guard adds a middleware that runs before the handler on the captured
// request. Returning a non-nil response short-circuits the route.
//
//	api.Guard(func(req *gohttp.ServerRequest) (*gohttp.Response, error) {
//	    if req.BearerToken() == "" {
//	        return gohttp.Unauthorized()
//	    }
//	    return nil, nil
//	})
func (r *Router) Guard(guard Handler) {
	r.mux.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, hr *http.Request) {
			req, ok := r.capture(w, hr)
			if !ok {
				return
			}
			res, err := guard(req)
			if err != nil || res != nil {
				r.respond(w, req, res, err)
				return
			}
			next.ServeHTTP(w, hr.WithContext(context.WithValue(hr.Context(), capturedKey{}, req)))
		})
	})
}

// ── Resource routes ──────────────────────────────────────────────────────────

// ResourceController handles the standard RESTful routes of a resource.
//
//	GET    /photos           → c.Index
//	POST   /photos           → c.Store
//	GET    /photos/{id}      → c.Show
//	PUT    /photos/{id}      → c.Update
//	DELETE /photos/{id}      → c.Destroy
type ResourceController interface {
	Index(req *gohttp.ServerRequest) (*gohttp.Response, error)
	Store(req *gohttp.ServerRequest) (*gohttp.Response, error)
	Show(req *gohttp.ServerRequest) (*gohttp.Response, error)
	Update(req *gohttp.ServerRequest) (*gohttp.Response, error)
	Destroy(req *gohttp.ServerRequest) (*gohttp.Response, error)
}

func (r *Router) Resource(pattern string, c ResourceController) {
	r.Get(pattern, c.Index)
	r.Post(pattern, c.Store)
	r.Get(pattern+"/{id}", c.Show)
	r.Put(pattern+"/{id}", c.Update)
	r.Patch(pattern+"/{id}", c.Update)
	r.Delete(pattern+"/{id}", c.Destroy)
}

// ── Static files ─────────────────────────────────────────────────────────────

// Static serves a filesystem at the given prefix.
// e.g. router.Static("/public", "./public")
func (r *Router) Static(prefix, dir string) {
	r.mux.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(dir))))
}

// ── Dispatch ─────────────────────────────────────────────────────────────────

func (r *Router) adapt(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, hr *http.Request) {
		req, ok := r.capture(w, hr)
		if !ok {
			return
		}
		res, err := h(req)
		r.respond(w, req, res, err)
	}
}

type capturedKey struct{}

// capture converts hr, once per request, and copies the chi route params
// into attributes. On failure a 400 response is already written.
func (r *Router) capture(w http.ResponseWriter, hr *http.Request) (*gohttp.ServerRequest, bool) {
	req, ok := hr.Context().Value(capturedKey{}).(*gohttp.ServerRequest)
	if !ok {
		var err error
		if req, err = r.factory.FromHTTP(hr); err != nil {
			r.log.Warnf("unable to capture %s %s: %s", hr.Method, hr.URL.Path, err)
			res, _ := gohttp.ErrorResponse(http.StatusBadRequest, "Bad Request.")
			r.send(w, res)
			return nil, false
		}
	}
	if rctx := chi.RouteContext(hr.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			req = req.WithAttribute(key, rctx.URLParams.Values[i])
		}
	}
	return req, true
}

func (r *Router) respond(w http.ResponseWriter, req *gohttp.ServerRequest, res *gohttp.Response, err error) {
	if err != nil {
		r.log.Errorf("%s %s failed: %s", req.Method(), req.RequestTarget(), err)
		res, _ = gohttp.ServerError()
	}
	if res == nil {
		res, _ = gohttp.NoContent()
	}
	r.send(w, res)
}

func (r *Router) send(w http.ResponseWriter, res *gohttp.Response) {
	if err := res.Send(gohttp.NewResponseWriterEmitter(w)); err != nil {
		r.log.Errorf("unable to send response: %s", err)
	}
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to http.ListenAndServe.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the underlying http.Handler (for testing etc.).
func (r *Router) Handler() http.Handler {
	return r.mux
}
