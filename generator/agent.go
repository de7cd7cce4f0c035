package generator

import (
	"context"
	"errors"
	"iter"

	"github.com/rs/zerolog"
)

// Agent 负责把编辑器的各类请求转成模型调用。
type Agent struct {
	llm          LLMClient
	keywordModel Model
	log          zerolog.Logger
}

// NewAgent wires an agent to llm. keywordModel is used for keyword extraction;
// the zero value selects DefaultModel.
func NewAgent(llm LLMClient, keywordModel Model, logger zerolog.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if keywordModel == "" {
		keywordModel = DefaultModel
	}
	return &Agent{
		llm:          llm,
		keywordModel: keywordModel,
		log:          logger.With().Str("component", "agent").Logger(),
	}, nil
}

// GenerateText runs a one-shot completion. It never fails: errors come back
// as a failed Result.
func (a *Agent) GenerateText(ctx context.Context, prompt string, model Model, system string) Result {
	raw, err := a.llm.Complete(ctx, Prompt{Model: model, System: system, User: prompt})
	if err != nil {
		a.log.Warn().Err(err).Str("model", string(model)).Msg("completion failed")
		return Failure(err.Error())
	}
	return Success(normalizeReply(raw))
}

// ImproveArticle asks the model to rewrite article according to instruction.
func (a *Agent) ImproveArticle(ctx context.Context, article, instruction string, model Model) Result {
	if instruction == "" {
		instruction = defaultImproveInstruction
	}
	return a.GenerateText(ctx, BuildImprovePrompt(article, instruction), model, "")
}

// StreamChat streams the reply to message in a session seeded with history.
func (a *Agent) StreamChat(ctx context.Context, history []Turn, message string, model Model) iter.Seq2[string, error] {
	return a.llm.Stream(ctx, Prompt{
		Model:   model,
		User:    message,
		History: historyMessages(history),
	})
}
