package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"foodshare-api/models"
	"foodshare-api/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInstrument_LogsSlowQueries(t *testing.T) {
	db, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	require.NoError(t, store.Instrument(db, zap.New(core), time.Nanosecond))

	s := store.NewGormStore(db)
	ctx := context.Background()
	require.NoError(t, s.Users().Create(ctx, &models.User{Name: "A", Email: "a@example.com", PasswordHash: "x", Role: models.RoleDonor}))
	_, err = s.Users().FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)

	slow := logs.FilterMessage("slow-query").All()
	require.NotEmpty(t, slow)
	ops := map[string]bool{}
	for _, entry := range slow {
		ops[entry.ContextMap()["operation"].(string)] = true
	}
	assert.True(t, ops["create"])
	assert.True(t, ops["query"])
}
