package router

// Handler serves a request that matched an endpoint and passed its filters.
// A returned error is turned into a 500 response.
type Handler interface {
	Handle(req *Request, res *Response, params *Params) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(req *Request, res *Response, params *Params) error

// Handle calls f.
func (f HandlerFunc) Handle(req *Request, res *Response, params *Params) error {
	return f(req, res, params)
}
