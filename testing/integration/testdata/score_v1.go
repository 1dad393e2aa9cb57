//go:build ignore

// Score module, build 1. Each load adds step to the preserved count.
package main

import (
	"time"

	"github.com/zoobzio/persist"
)

var PersistABI = persist.ABIVersion

const step = 5

type Score struct {
	Count int `msgpack:"count"`
}

func PersistMain(ac *persist.AppContext) {
	persist.Preserve(ac, Score{})
	if ac.Err() == nil {
		persist.MustResource[Score](ac.App()).Count += step
	}
	ac.SetRunner(persist.LoopRunner(5*time.Millisecond, nil))
	ac.Run()
}

func main() {}
