package router

// Filter is a pre-handler check attached to a group. It may let the request
// continue or abort it with a terminal status and body.
type Filter interface {
	Apply(req *Request, res *Response, params *Params) Outcome
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(req *Request, res *Response, params *Params) Outcome

// Apply calls f.
func (f FilterFunc) Apply(req *Request, res *Response, params *Params) Outcome {
	return f(req, res, params)
}

// Outcome is the result of a filter: either Continue or Abort with a status
// and body.
type Outcome struct {
	aborted bool
	status  int
	body    string
}

// Continue lets the chain proceed to the next filter or the handler.
func Continue() Outcome {
	return Outcome{}
}

// Abort stops the chain and finalizes the response with status and body.
func Abort(status int, body string) Outcome {
	return Outcome{aborted: true, status: status, body: body}
}

// Aborted reports whether the outcome stops the chain.
func (o Outcome) Aborted() bool {
	return o.aborted
}

// Status returns the abort status. Zero for Continue.
func (o Outcome) Status() int {
	return o.status
}

// Body returns the abort body.
func (o Outcome) Body() string {
	return o.body
}

// ApplyFilters runs chain in order and returns the first Abort, or Continue
// when every filter lets the request through.
func ApplyFilters(chain []Filter, req *Request, res *Response, params *Params) Outcome {
	for _, f := range chain {
		if out := f.Apply(req, res, params); out.Aborted() {
			return out
		}
	}
	return Continue()
}
