// Package http provides an immutable HTTP message model: Request,
// ServerRequest, Response, Stream, UploadedFile and URI, mirroring PSR-7 as
// used by Laravel.
//
// Messages are values. Every With* method returns a modified copy (or the
// receiver when nothing changes); the original is never touched. Headers are
// looked up case-insensitively but keep the spelling they were first given.
//
// # Request
//
//	req, err := gohttp.NewRequest("GET", "https://example.com/users?page=2")
//	req.RequestTarget()        // "/users?page=2"
//	req.HeaderLine("host")     // "example.com"
//
//	req, err = req.WithHeader("Accept", "application/json")
//	req, err = req.WithAddedHeader("Accept", "text/html")
//	req.HeaderLine("accept")   // "application/json, text/html"
//
//	uri, _ := gohttp.NewURI("https://api.example.com/v2")
//	req = req.WithURI(uri, true) // keep the existing Host header
//
// # ServerRequest
//
// Factory.FromHTTP captures a *http.Request into a ServerRequest with query,
// cookies, parsed body and uploaded files. Laravel-style input helpers read
// from it:
//
//	req, err := factory.FromHTTP(r)
//
//	var payload struct {
//	    Name string `json:"name"`
//	}
//	if err := req.Bind(&payload); err != nil { ... }
//
//	name  := req.Input("name", "default")
//	page  := req.Query("page", "1")
//	all   := req.All()          // map[string]string
//	token := req.BearerToken()
//	id    := req.RouteParam("id")
//
//	if file := req.File("avatar"); file != nil {
//	    err = file.MoveTo("/var/uploads/avatar.png")
//	}
//
// # Response
//
//	res, err := gohttp.NewResponse(200, gohttp.SetBody("hello"))
//	res, err = res.WithStatus(404)   // reason "Not Found"
//
//	// JSON helpers
//	res, err = gohttp.Success(user)          // 200 {"data": user}
//	res, err = gohttp.NotFound()             // 404 {"message": "Not found."}
//	res, err = gohttp.ValidationErrors(bag)  // 422
//
//	// Sending
//	err = res.Send(gohttp.NewResponseWriterEmitter(w))
//	err = res.Send(gohttp.NewWireEmitter(conn))
//
// # Stream
//
//	s, _ := gohttp.NewStream("in memory")           // read-write, seekable
//	s, _ = gohttp.OpenStream("/tmp/report.csv", "r") // read-only
//	s, _ = gohttp.NewStream(gohttp.Resource{Handle: conn, Mode: "rb"})
package http
