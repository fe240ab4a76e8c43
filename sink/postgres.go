package sink

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"adexport/normalize"
)

const recordBatchSize = 500

const createRecordsTable = `
	CREATE TABLE IF NOT EXISTS directory_records (
		id BIGSERIAL PRIMARY KEY,
		extract_time TEXT NOT NULL,
		datasource TEXT NOT NULL,
		datasource_type TEXT NOT NULL,
		datasource_value TEXT NOT NULL,
		attributes JSONB NOT NULL
	)`

const insertRecord = `
	INSERT INTO directory_records (extract_time, datasource, datasource_type, datasource_value, attributes)
	VALUES ($1, $2, $3, $4, $5)`

// PostgresSink stores each record as one JSONB row, flushing in batched
// transactions.
type PostgresSink struct {
	pool  *pgxpool.Pool
	ctx   context.Context
	batch []*normalize.Record
}

func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createRecordsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure records table: %w", err)
	}
	return &PostgresSink{pool: pool, ctx: ctx}, nil
}

func (s *PostgresSink) Write(record *normalize.Record) error {
	s.batch = append(s.batch, record)
	if len(s.batch) >= recordBatchSize {
		return s.flush()
	}
	return nil
}

func (s *PostgresSink) Close() error {
	err := s.flush()
	s.pool.Close()
	return err
}

func rollbackOrCommit(ctx context.Context, tx pgx.Tx, err *error) {
	if *err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Error().Err(rbErr).Msg("transaction rollback failed")
		}
		return
	}
	if cmErr := tx.Commit(ctx); cmErr != nil {
		*err = fmt.Errorf("commit failed: %w", cmErr)
	}
}

func (s *PostgresSink) flush() (err error) {
	if len(s.batch) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(s.ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollbackOrCommit(s.ctx, tx, &err)

	for _, record := range s.batch {
		attrs, mErr := json.Marshal(record.Fields)
		if mErr != nil {
			err = fmt.Errorf("encode attributes: %w", mErr)
			return err
		}
		if _, xErr := tx.Exec(s.ctx, insertRecord,
			record.ExtractTime,
			record.Datasource,
			record.DatasourceType,
			record.DatasourceValue,
			attrs,
		); xErr != nil {
			err = fmt.Errorf("insert record: %w", xErr)
			return err
		}
	}

	s.batch = s.batch[:0]
	return nil
}
