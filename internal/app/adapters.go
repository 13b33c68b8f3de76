package app

import (
	"morvo-assistant/internal/common/logger"
	classifymessage "morvo-assistant/internal/workers/ai-conversation/classify-message"
	generatereply "morvo-assistant/internal/workers/ai-conversation/generate-reply"
	querymarketingdata "morvo-assistant/internal/workers/ai-conversation/query-marketing-data"
)

// Logger adapters for answer tiers that have their own Logger interfaces
type classifyMessageLoggerAdapter struct {
	logger.Logger
}

func (a *classifyMessageLoggerAdapter) With(fields map[string]interface{}) classifymessage.Logger {
	return &classifyMessageLoggerAdapter{a.Logger.With(fields)}
}

type queryMarketingDataLoggerAdapter struct {
	logger.Logger
}

func (a *queryMarketingDataLoggerAdapter) With(fields map[string]interface{}) querymarketingdata.Logger {
	return &queryMarketingDataLoggerAdapter{a.Logger.With(fields)}
}

type generateReplyLoggerAdapter struct {
	logger.Logger
}

func (a *generateReplyLoggerAdapter) With(fields map[string]interface{}) generatereply.Logger {
	return &generateReplyLoggerAdapter{a.Logger.With(fields)}
}
