package server_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	apitesting "github.com/crewlytics/attrition/api/testing"
)

var (
	testDB    *apitesting.DB
	testMongo *apitesting.Mongo
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	log := slog.Default()

	var err error
	testDB, err = apitesting.NewDB(ctx, log, nil)
	if err != nil {
		slog.Error("failed to start PostgreSQL container", "error", err)
		os.Exit(1)
	}
	testMongo, err = apitesting.NewMongo(ctx, log, nil)
	if err != nil {
		testDB.Close()
		slog.Error("failed to start MongoDB container", "error", err)
		os.Exit(1)
	}

	code := m.Run()

	testMongo.Close()
	testDB.Close()
	os.Exit(code)
}
