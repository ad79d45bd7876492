package main

import (
	_ "github.com/go-sql-driver/mysql"
	"gofr.dev/pkg/gofr"

	"github.com/srclos-net/aws-micro-test/internal/spanstore"
	"github.com/srclos-net/aws-micro-test/internal/spanstore/migrations"
)

func main() {
	app := gofr.New()

	app.Migrate(migrations.All())

	app.POST("/api/spans", spanstore.PostSpans)
	app.GET("/api/traces", spanstore.GetTrace)

	app.Run()
}
