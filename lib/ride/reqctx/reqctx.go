// Package reqctx carries the region and consistency level selected by a caller
// through the context of one request.
package reqctx

import (
	"context"
	"net/http"

	"github.com/ValentinKolb/dRide/lib/ride/model"
)

// Header names read by FromHeaders
const (
	HeaderRegion      = "X-Region"
	HeaderConsistency = "X-Consistency-Level"
)

// Values is the per-request routing selection
type Values struct {
	Region      model.Region
	Consistency model.ConsistencyLevel
}

// Default returns the selection used when a request names nothing
func Default() Values {
	return Values{Region: model.DefaultRegion, Consistency: model.DefaultConsistency}
}

type ctxKey struct{}

// With returns a copy of ctx that carries v
func With(ctx context.Context, v Values) context.Context {
	return context.WithValue(ctx, ctxKey{}, v)
}

// FromContext returns the selection of ctx, or the defaults if there is none
func FromContext(ctx context.Context) Values {
	if v, ok := ctx.Value(ctxKey{}).(Values); ok {
		return v
	}
	return Default()
}

// Parse builds a selection from raw names. Missing or unknown names fall back
// to the defaults, they are not an error.
func Parse(region, consistency string) Values {
	v := Default()
	if r, err := model.ParseRegion(region); err == nil {
		v.Region = r
	}
	if c, err := model.ParseConsistency(consistency); err == nil {
		v.Consistency = c
	}
	return v
}

// FromHeaders reads the selection from the X-Region and X-Consistency-Level headers
func FromHeaders(h http.Header) Values {
	return Parse(h.Get(HeaderRegion), h.Get(HeaderConsistency))
}

// Middleware stores the header selection in the context of every request.
// The value lives in the request's context only, so it ends with the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(With(r.Context(), FromHeaders(r.Header))))
	})
}
