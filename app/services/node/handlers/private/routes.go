package private

import (
	"net/http"

	"github.com/forkline/blockchain/foundation/blockchain/state"
	"github.com/forkline/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Routes binds all the node to node routes.
func Routes(app *web.App, cfg Config) {
	prv := Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	const version = "v1"

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/peers", prv.SubmitPeer)
	app.Handle(http.MethodPost, version, "/node/getblocks", prv.GetBlocks)
	app.Handle(http.MethodPost, version, "/node/inv", prv.Inv)
	app.Handle(http.MethodPost, version, "/node/block/found", prv.BlockFound)
	app.Handle(http.MethodPost, version, "/node/tx/submit", prv.SubmitNodeTransaction)
	app.Handle(http.MethodGet, version, "/node/tx/list", prv.Mempool)
}
