package store

import (
	"time"

	"foodshare-api/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const startKey = "foodshare:query_start"

// queryTimer records every statement's latency and logs the ones slower
// than threshold.
type queryTimer struct {
	logger    *zap.Logger
	threshold time.Duration
}

// Instrument registers timing callbacks around gorm's create, query, update,
// delete, row and raw processors. A zero threshold means 100ms.
func Instrument(db *gorm.DB, logger *zap.Logger, threshold time.Duration) error {
	if threshold == 0 {
		threshold = 100 * time.Millisecond
	}
	t := &queryTimer{logger: logger, threshold: threshold}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("foodshare:before_create", t.start); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("foodshare:after_create", t.finish("create")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("foodshare:before_query", t.start); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("foodshare:after_query", t.finish("query")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("foodshare:before_update", t.start); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("foodshare:after_update", t.finish("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("foodshare:before_delete", t.start); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("foodshare:after_delete", t.finish("delete")); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("foodshare:before_row", t.start); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("foodshare:after_row", t.finish("row")); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("foodshare:before_raw", t.start); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("foodshare:after_raw", t.finish("raw"))
}

func (t *queryTimer) start(db *gorm.DB) {
	db.InstanceSet(startKey, time.Now())
}

func (t *queryTimer) finish(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startKey)
		if !ok {
			return
		}
		started, ok := v.(time.Time)
		if !ok {
			return
		}
		took := time.Since(started)
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		metrics.RecordDBQueryDuration(op, table, took)

		if took <= t.threshold {
			return
		}
		sql := db.Statement.SQL.String()
		if len(sql) > 200 {
			sql = sql[:200] + "..."
		}
		t.logger.Warn("slow-query",
			zap.String("operation", op),
			zap.String("table", table),
			zap.String("sql", sql),
			zap.Duration("took", took),
		)
		metrics.IncrementSlowQuery(op, table)
	}
}
