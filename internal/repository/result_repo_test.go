package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ideogrid/internal/model"
)

// testDB connects to MONGO_TEST_URI or skips the test
func testDB(t *testing.T) *mongo.Database {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("ideogrid_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx := context.Background()
		db.Drop(ctx)
		client.Disconnect(ctx)
	})
	return db
}

func TestResultRepo_Mongo(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewResultRepo(db)

	v := 0.9
	sub := &model.Submission{
		SessionID:  "s1",
		Variant:    "short",
		Scores:     map[model.Axis]float64{model.AxisEconomic: 80, model.AxisAuthority: -80},
		Macro:      model.MacroRightLib,
		MacroLabel: "Libertarian Right",
		Category:   "Libertarian Right",
		Answers:    []model.AnswerRecord{{QuestionID: 1, Axis: model.AxisEconomic, Value: &v}},
	}
	id, err := repo.Create(ctx, sub)
	require.NoError(t, err)
	require.Len(t, id, 24)

	_, err = repo.Create(ctx, &model.Submission{SessionID: "s2", Macro: model.MacroRightLib})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.Submission{SessionID: "s3", Macro: model.MacroCentre})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, model.MacroRightLib, got.Macro)
	assert.Equal(t, 80.0, got.Scores[model.AxisEconomic])
	require.Len(t, got.Answers, 1)
	assert.Equal(t, 0.9, *got.Answers[0].Value)

	missing, err := repo.GetByID(ctx, "000000000000000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
	missing, err = repo.GetByID(ctx, "not-hex")
	require.NoError(t, err)
	assert.Nil(t, missing)

	counts, err := repo.CountByMacro(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[model.MacroCode]int64{model.MacroRightLib: 2, model.MacroCentre: 1}, counts)
}
