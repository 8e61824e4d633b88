package mongo_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	apitesting "github.com/crewlytics/attrition/api/testing"
)

var testMongo *apitesting.Mongo

func TestMain(m *testing.M) {
	ctx := context.Background()
	log := slog.Default()

	var err error
	testMongo, err = apitesting.NewMongo(ctx, log, nil)
	if err != nil {
		slog.Error("failed to start MongoDB container", "error", err)
		os.Exit(1)
	}

	code := m.Run()

	testMongo.Close()
	os.Exit(code)
}
