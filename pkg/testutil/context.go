package testutil

import (
	"net/http"

	"nftmarket/pkg/requestcontext"
)

// WithCaller sets the authenticated account on the request context, the way
// the auth middleware does after validating a token. Empty callers are ignored.
func WithCaller(req *http.Request, caller string) *http.Request {
	if caller == "" {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithRequestID sets the request ID on the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
