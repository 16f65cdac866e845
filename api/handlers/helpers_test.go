package handlers_test

import (
	"net/http"

	"github.com/gorilla/mux"
)

func muxVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}
