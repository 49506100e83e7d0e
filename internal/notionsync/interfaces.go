package notionsync

import (
	"context"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/jomei/notionapi"
)

// NotionService is the subset of the Notion API the review sync needs.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	ArchivePage(ctx context.Context, pageID string) error
}

// DecisionSource produces the current decision for a statement.
type DecisionSource interface {
	Score(ctx context.Context, statementID string) (domain.DecisionRecord, error)
}
