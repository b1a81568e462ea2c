// Package dispatch resolves requests against a route registry.
//
// A dispatch goes through these stages:
//
//  1. The longest static mount prefix matching the path, if any, serves the
//     request (GET only).
//  2. Otherwise every endpoint pattern is tried in registration order. No
//     match yields 404 "Not found"; a path match without a method match
//     yields 405 "Method not allowed".
//  3. Path captures and query pairs are merged into Params.
//  4. The endpoint's filter chain runs; an abort finalizes the response with
//     the filter's status and body.
//  5. The handler runs. An error or a panic yields 500
//     "Internal Server Error" and discards anything it wrote.
//
// The transport and DirectRequest both end in Dispatch, so they produce the
// same body, status and content type for the same input.
package dispatch
