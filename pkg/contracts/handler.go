package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by each API surface that mounts routes on the
// service router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
