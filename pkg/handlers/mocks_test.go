package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/songo-bi/songo-engine/pkg/adapters/datasource"
	"github.com/songo-bi/songo-engine/pkg/models"
	"github.com/songo-bi/songo-engine/pkg/services"
)

// fakeDataService implements services.DataService with canned responses.
type fakeDataService struct {
	chartData   *services.ChartData
	chartErr    error
	chartReq    *models.ChartRequest
	sqlResult   *datasource.QueryResult
	sqlErr      error
	gotSQL      string
	gotLimit    int
	gotDatabase uuid.UUID
	metadata    *services.TableMetadata
	metadataErr error
	gotTableID  uuid.UUID
}

func (f *fakeDataService) ChartData(_ context.Context, req *models.ChartRequest) (*services.ChartData, error) {
	f.chartReq = req
	if f.chartErr != nil {
		return nil, f.chartErr
	}
	return f.chartData, nil
}

func (f *fakeDataService) ExecuteSQL(_ context.Context, databaseID uuid.UUID, sqlQuery string, limit int) (*datasource.QueryResult, error) {
	f.gotDatabase = databaseID
	f.gotSQL = sqlQuery
	f.gotLimit = limit
	if f.sqlErr != nil {
		return nil, f.sqlErr
	}
	return f.sqlResult, nil
}

func (f *fakeDataService) TableMetadata(_ context.Context, tableID uuid.UUID) (*services.TableMetadata, error) {
	f.gotTableID = tableID
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return f.metadata, nil
}

var _ services.DataService = (*fakeDataService)(nil)
