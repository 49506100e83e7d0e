package notionsync

import (
	"time"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/jomei/notionapi"
)

// Review board column names.
const (
	PropStatement    = "Statement"
	PropSuggested    = "Suggested"
	PropConfidence   = "Confidence"
	PropModelVersion = "Model Version"
	PropDecision     = "Decision"
	PropSyncedAt     = "Synced At"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		},
	}
}

// DecisionToProperties maps a decision record onto review board properties.
// Every feature in the snapshot becomes a number column named after it.
func DecisionToProperties(rec domain.DecisionRecord, now time.Time) notionapi.Properties {
	props := notionapi.Properties{
		PropStatement: notionapi.TitleProperty{Title: richText(rec.StatementID)},
		PropDecision:  notionapi.RichTextProperty{RichText: richText(rec.DecisionLabel)},
	}

	if rec.Suggested != "" {
		props[PropSuggested] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(rec.Suggested)},
		}
	}
	if rec.Confidence != nil {
		props[PropConfidence] = notionapi.NumberProperty{Number: *rec.Confidence}
	}
	if rec.ModelVersion != "" {
		props[PropModelVersion] = notionapi.RichTextProperty{RichText: richText(rec.ModelVersion)}
	}

	for _, name := range domain.FeatureNames {
		if v, ok := rec.FeatureSnapshot[name]; ok {
			props[name] = notionapi.NumberProperty{Number: v}
		}
	}

	d := notionapi.Date(now.UTC())
	props[PropSyncedAt] = notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
	return props
}

// statementIDOf reads the title of a review page. Returns "" if absent.
func statementIDOf(page notionapi.Page) string {
	if prop, ok := page.Properties[PropStatement]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok && len(title.Title) > 0 {
			return title.Title[0].PlainText
		}
	}
	return ""
}
