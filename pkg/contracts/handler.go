// Package contracts holds the small interfaces the application shell and
// the feature surfaces agree on.
package contracts

import "github.com/julienschmidt/httprouter"

// Handler is a mountable route surface. The booking API and the health
// probes each implement it, and the application shell wires them onto its
// router with the appropriate middleware stack.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
