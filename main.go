package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/playzone/playzone-api/api/handlers"
	"github.com/playzone/playzone-api/api/scheduler"
	"github.com/playzone/playzone-api/config"
	"github.com/playzone/playzone-api/databases"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil {
		log.Fatal(err)
	}

	db := a.DatabaseHelper()
	s := scheduler.NewScheduler(
		databases.NewUserDatabase(db),
		databases.NewReportDatabase(db),
	)
	s.Start()
	defer s.Stop()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("playzone-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
