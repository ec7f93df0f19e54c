package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/songo-bi/songo-engine/pkg/adapters/datasource"
	"github.com/songo-bi/songo-engine/pkg/apperrors"
	"github.com/songo-bi/songo-engine/pkg/cache"
	"github.com/songo-bi/songo-engine/pkg/catalog"
	"github.com/songo-bi/songo-engine/pkg/logging"
	"github.com/songo-bi/songo-engine/pkg/models"
	enginesql "github.com/songo-bi/songo-engine/pkg/sql"
	"github.com/songo-bi/songo-engine/pkg/sqlbuilder"
	"github.com/songo-bi/songo-engine/pkg/viz"
)

// ChartData is the shaped payload returned for a chart request.
type ChartData struct {
	Query    string       `json:"query"`
	Columns  []string     `json:"columns"`
	Data     []viz.Record `json:"data"`
	RowCount int          `json:"row_count"`
	IsCached bool         `json:"is_cached"`
}

// TableMetadata describes a chart datasource for table pickers: its catalog
// definition plus a live row count and a handful of sample rows.
type TableMetadata struct {
	Table      *models.Table `json:"table"`
	RowCount   int64         `json:"row_count"`
	SampleRows []viz.Record  `json:"sample_rows"`
}

// sampleRowCount bounds the preview rows fetched for table metadata.
const sampleRowCount = 10

// DataService is the chart-query engine's entry point: it resolves the
// datasource, builds SQL, executes it against the owning database, shapes
// the rows, and memoizes the shaped payload.
type DataService interface {
	// ChartData runs the composed build-and-run pipeline for a chart request.
	ChartData(ctx context.Context, req *models.ChartRequest) (*ChartData, error)

	// ExecuteSQL runs a raw single-statement query against a database,
	// bounded by limit (DefaultQueryLimit when limit <= 0).
	ExecuteSQL(ctx context.Context, databaseID uuid.UUID, sqlQuery string, limit int) (*datasource.QueryResult, error)

	// TableMetadata returns catalog plus live metadata for a datasource table.
	TableMetadata(ctx context.Context, tableID uuid.UUID) (*TableMetadata, error)
}

// dataService implements DataService.
type dataService struct {
	schema         catalog.SchemaProvider
	connections    catalog.ConnectionProvider
	adapterFactory datasource.AdapterFactory
	memoizer       *cache.Memoizer
	logger         *zap.Logger
}

// NewDataService creates a data service with dependencies.
func NewDataService(
	schema catalog.SchemaProvider,
	connections catalog.ConnectionProvider,
	adapterFactory datasource.AdapterFactory,
	memoizer *cache.Memoizer,
	logger *zap.Logger,
) DataService {
	return &dataService{
		schema:         schema,
		connections:    connections,
		adapterFactory: adapterFactory,
		memoizer:       memoizer,
		logger:         logger,
	}
}

// ChartData resolves the request's table, builds the chart SQL, and returns
// the shaped result, serving repeat requests from the cache. Concurrent
// identical requests share one execution.
func (s *dataService) ChartData(ctx context.Context, req *models.ChartRequest) (*ChartData, error) {
	started := time.Now()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chart request: %w", err)
	}

	table, err := s.schema.Table(ctx, req.DatasourceID)
	if err != nil {
		return nil, fmt.Errorf("resolve datasource %s: %w", req.DatasourceID, err)
	}

	db, err := s.connections.Database(ctx, table.DatabaseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("database %s: %w", table.DatabaseID, apperrors.ErrConnectionUnavailable)
		}
		return nil, err
	}

	// Dialects without a LIMIT clause get the SQL unbounded and the row
	// limit moves to the executor's wrapper (SQL Server TOP).
	buildReq := req
	executorLimit := 0
	if !s.adapterFactory.SupportsLimitClause(db.Type) {
		clone := *req
		clone.RowLimit = 0
		buildReq = &clone
		executorLimit = req.RowLimit
	}

	sqlQuery, err := sqlbuilder.Build(table, buildReq)
	if err != nil {
		return nil, err
	}

	// Filter fragments pass through to the SQL verbatim; flag suspicious
	// ones for the audit log but let the backend decide.
	for _, detection := range enginesql.CheckFilterClauses(req.Where, req.Having) {
		s.logger.Warn("filter clause flagged by injection check",
			zap.String("clause", detection.Clause),
			zap.String("fingerprint", detection.Fingerprint),
			zap.String("datasourceID", req.DatasourceID.String()),
		)
	}

	key, err := cache.ChartDataKey(req.DatasourceID, req)
	if err != nil {
		return nil, err
	}

	payload, hit, err := s.memoizer.GetOrCompute(ctx, key, cacheTTL(db), func(ctx context.Context) ([]byte, error) {
		data, err := s.computeChartData(ctx, db, sqlQuery, executorLimit, req.VizType)
		if err != nil {
			return nil, err
		}
		return json.Marshal(data)
	})
	if err != nil {
		observeChartQuery(db.Type, "error", time.Since(started))
		return nil, err
	}

	var data ChartData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decode cached chart data: %w", err)
	}
	data.IsCached = hit

	status := "computed"
	if hit {
		status = "cached"
	}
	observeChartQuery(db.Type, status, time.Since(started))

	s.logger.Debug("chart data served",
		zap.String("datasourceID", req.DatasourceID.String()),
		zap.String("vizType", string(req.VizType)),
		zap.Int("rows", data.RowCount),
		zap.Bool("cached", hit),
	)
	return &data, nil
}

// computeChartData executes the built SQL and shapes the rows. For LIMIT
// dialects the builder already bounded the query and limit is zero; for the
// rest the executor applies its own wrapping.
func (s *dataService) computeChartData(ctx context.Context, db *models.Database, sqlQuery string, limit int, vizType models.VizType) (*ChartData, error) {
	executor, err := s.adapterFactory.NewQueryExecutor(ctx, db)
	if err != nil {
		return nil, err
	}
	defer executor.Close()

	result, err := executor.Query(ctx, sqlQuery, limit)
	if err != nil {
		s.logger.Error("chart query failed",
			zap.String("database", db.Name),
			zap.String("query", logging.SanitizeQuery(sqlQuery)),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, fmt.Errorf("query failed: %w", err)
	}

	records, err := viz.Shape(result, vizType)
	if err != nil {
		return nil, err
	}

	return &ChartData{
		Query:    sqlQuery,
		Columns:  result.ColumnNames(),
		Data:     records,
		RowCount: result.RowCount,
	}, nil
}

// ExecuteSQL validates and runs a raw SQL statement. The statement must be
// a single statement; the executor wraps it in a limiting subselect.
func (s *dataService) ExecuteSQL(ctx context.Context, databaseID uuid.UUID, sqlQuery string, limit int) (*datasource.QueryResult, error) {
	validation := enginesql.ValidateAndNormalize(sqlQuery)
	if validation.Error != nil {
		return nil, validation.Error
	}

	db, err := s.connections.Database(ctx, databaseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("database %s: %w", databaseID, apperrors.ErrConnectionUnavailable)
		}
		return nil, err
	}

	if limit <= 0 {
		limit = datasource.DefaultQueryLimit
	}

	executor, err := s.adapterFactory.NewQueryExecutor(ctx, db)
	if err != nil {
		return nil, err
	}
	defer executor.Close()

	started := time.Now()
	result, err := executor.Query(ctx, validation.NormalizedSQL, limit)
	if err != nil {
		observeRawQuery(db.Type, "error", time.Since(started))
		s.logger.Error("sql execution failed",
			zap.String("database", db.Name),
			zap.String("query", logging.SanitizeQuery(validation.NormalizedSQL)),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, fmt.Errorf("query failed: %w", err)
	}
	observeRawQuery(db.Type, "ok", time.Since(started))

	return result, nil
}

// TableMetadata returns the table's catalog definition plus a live row
// count and sample rows, memoized with the owning database's TTL.
func (s *dataService) TableMetadata(ctx context.Context, tableID uuid.UUID) (*TableMetadata, error) {
	table, err := s.schema.Table(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("resolve table %s: %w", tableID, err)
	}

	db, err := s.connections.Database(ctx, table.DatabaseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("database %s: %w", table.DatabaseID, apperrors.ErrConnectionUnavailable)
		}
		return nil, err
	}

	key := cache.TableMetadataKey(tableID)
	payload, _, err := s.memoizer.GetOrCompute(ctx, key, cacheTTL(db), func(ctx context.Context) ([]byte, error) {
		meta, err := s.computeTableMetadata(ctx, db, table)
		if err != nil {
			return nil, err
		}
		return json.Marshal(meta)
	})
	if err != nil {
		return nil, err
	}

	var meta TableMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, fmt.Errorf("decode cached table metadata: %w", err)
	}
	return &meta, nil
}

func (s *dataService) computeTableMetadata(ctx context.Context, db *models.Database, table *models.Table) (*TableMetadata, error) {
	executor, err := s.adapterFactory.NewQueryExecutor(ctx, db)
	if err != nil {
		return nil, err
	}
	defer executor.Close()

	countResult, err := executor.Query(ctx,
		fmt.Sprintf("SELECT COUNT(*) AS row_count FROM %s", table.QualifiedName()), 0)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	var rowCount int64
	if countResult.RowCount > 0 && len(countResult.Rows[0]) > 0 {
		rowCount = toInt64(countResult.Rows[0][0])
	}

	sampleResult, err := executor.Query(ctx,
		fmt.Sprintf("SELECT * FROM %s", table.QualifiedName()), sampleRowCount)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	samples, err := viz.Shape(sampleResult, models.VizTypeTable)
	if err != nil {
		return nil, err
	}

	return &TableMetadata{
		Table:      table,
		RowCount:   rowCount,
		SampleRows: samples,
	}, nil
}

// cacheTTL converts a database's cache timeout to a TTL, zero meaning the
// store default.
func cacheTTL(db *models.Database) time.Duration {
	if db.CacheTimeout <= 0 {
		return 0
	}
	return time.Duration(db.CacheTimeout) * time.Second
}

// toInt64 normalizes the COUNT(*) value across drivers.
func toInt64(value any) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}
