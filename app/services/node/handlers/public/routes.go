package public

import (
	"net/http"

	"github.com/forkline/blockchain/foundation/blockchain/state"
	"github.com/forkline/blockchain/foundation/events"
	"github.com/forkline/blockchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// Routes binds all the public routes.
func Routes(app *web.App, cfg Config) {
	pbl := Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	const version = "v1"

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/chain/info", pbl.Info)
	app.Handle(http.MethodGet, version, "/chain/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/chain/forks", pbl.Forks)
	app.Handle(http.MethodGet, version, "/chain/orphans", pbl.Orphans)
	app.Handle(http.MethodGet, version, "/mining/signal", pbl.SignalMining)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitWalletTransaction)
}
