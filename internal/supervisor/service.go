// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package supervisor

import "context"

// Func adapts a plain function into a suture.Service. Use it to supervise
// anything that doesn't already implement Serve(context.Context) error,
// e.g. an *http.Server wrapped to stop on context cancellation.
type Func struct {
	name string
	run  func(ctx context.Context) error
}

// NewFunc wraps run as a named suture.Service.
func NewFunc(name string, run func(ctx context.Context) error) *Func {
	return &Func{name: name, run: run}
}

// Serve implements suture.Service.
func (f *Func) Serve(ctx context.Context) error {
	return f.run(ctx)
}

// String implements fmt.Stringer so suture's logs identify the service.
func (f *Func) String() string {
	return f.name
}
