// Package orchestrator implements C7: the single use-case that drives
// one chat-completion turn end to end — validate, resolve session,
// persist the request, call upstream, relay or transform the reply,
// advance the session, persist the response. Modeled on the teacher's
// application/usecase layer (one Execute-shaped entry point per
// use-case, explicit repo/service dependencies, zap logging).
package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chriscoletech/qwen-gateway/internal/apperrors"
	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
	"github.com/chriscoletech/qwen-gateway/internal/domain/repository"
	"github.com/chriscoletech/qwen-gateway/internal/metrics"
	"github.com/chriscoletech/qwen-gateway/internal/modelscache"
	"github.com/chriscoletech/qwen-gateway/internal/relay"
	"github.com/chriscoletech/qwen-gateway/internal/sessionstore"
	"github.com/chriscoletech/qwen-gateway/internal/transform"
	"github.com/chriscoletech/qwen-gateway/internal/upstream"
)

// UpstreamClient is the subset of *upstream.Client the orchestrator
// needs, kept as an interface so tests can fake it.
type UpstreamClient interface {
	CreateChat(ctx context.Context, title string, models []string) (string, error)
	SendMessageBlocking(ctx context.Context, env *upstream.Envelope) (*upstream.BlockingReply, error)
	SendMessageStream(ctx context.Context, env *upstream.Envelope) (io.ReadCloser, error)
}

// Orchestrator is C7.
type Orchestrator struct {
	upstream  UpstreamClient
	sessions  *sessionstore.Store
	relay     *relay.Relay
	models    *modelscache.Cache
	requests  repository.RequestRepository
	responses repository.ResponseRepository
	logger    *zap.Logger
}

// New constructs an Orchestrator.
func New(
	upstreamClient UpstreamClient,
	sessions *sessionstore.Store,
	rel *relay.Relay,
	models *modelscache.Cache,
	requests repository.RequestRepository,
	responses repository.ResponseRepository,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		upstream:  upstreamClient,
		sessions:  sessions,
		relay:     rel,
		models:    models,
		requests:  requests,
		responses: responses,
		logger:    logger.With(zap.String("component", "orchestrator")),
	}
}

// Validate checks the inbound request against spec.md §4.7's
// preconditions: a non-empty messages array whose roles are all known,
// and at least one user message to derive the fingerprint from.
func Validate(messages []entity.ChatMessage) error {
	if len(messages) == 0 {
		return apperrors.New(apperrors.KindInvalidRequest, "messages must not be empty")
	}
	for _, m := range messages {
		if !m.Role.IsKnown() {
			return apperrors.Newf(apperrors.KindInvalidRequest, "unknown message role %q", m.Role)
		}
		if m.Content.IsEmpty() {
			return apperrors.New(apperrors.KindInvalidRequest, "message content must not be empty")
		}
	}
	if _, ok := entity.FirstUserMessage(messages); !ok {
		return apperrors.New(apperrors.KindInvalidRequest, "messages must include at least one user message")
	}
	return nil
}

// resolveSession derives the fingerprint and gets-or-creates the
// backing session, creating a fresh upstream chat on first sight.
func (o *Orchestrator) resolveSession(ctx context.Context, messages []entity.ChatMessage, model string) (*entity.Session, error) {
	fingerprint, ok := sessionstore.Fingerprint(messages)
	if !ok {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "could not derive a session fingerprint from the request")
	}

	first, _ := entity.FirstUserMessage(messages)
	canonical := first.Content.Canonical()

	factory := func(ctx context.Context, firstUserMessage string) (string, error) {
		title := firstUserMessage
		if len(title) > 80 {
			title = title[:80]
		}
		return o.upstream.CreateChat(ctx, title, []string{model})
	}

	return o.sessions.GetOrCreate(ctx, fingerprint, canonical, factory)
}

// ListModels returns the cached, reshaped model catalog for C10's
// /v1/models surface.
func (o *Orchestrator) ListModels(ctx context.Context) ([]entity.ModelEntry, error) {
	return o.models.List(ctx)
}

// GetModel returns one cached model entry by id.
func (o *Orchestrator) GetModel(ctx context.Context, id string) (entity.ModelEntry, bool, error) {
	return o.models.Get(ctx, id)
}

// ExecuteBlocking drives one non-streaming turn end to end.
func (o *Orchestrator) ExecuteBlocking(ctx context.Context, messages []entity.ChatMessage, model string, inboundBodyJSON string) (*entity.Session, *upstream.BlockingReply, *entity.RequestRecord, error) {
	start := time.Now()

	if err := Validate(messages); err != nil {
		return nil, nil, nil, err
	}

	session, err := o.resolveSession(ctx, messages, model)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("error").Inc()
		return nil, nil, nil, err
	}

	envelope := transform.BuildEnvelope(messages, session, model, false)

	reqRecord := &entity.RequestRecord{
		ID:              uuid.NewString(),
		SessionID:       session.ID,
		Timestamp:       start,
		Model:           model,
		Stream:          false,
		InboundBodyJSON: redactInboundBody(inboundBodyJSON),
	}
	if err := o.requests.Create(ctx, reqRecord); err != nil {
		o.logger.Warn("failed to persist request audit row", zap.Error(err))
	}

	reply, err := o.upstream.SendMessageBlocking(ctx, envelope)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("error").Inc()
		o.recordFailure(ctx, reqRecord, err, start)
		return session, nil, reqRecord, err
	}

	parentID := transform.ExtractParentID(reply)
	if parentID != "" {
		if err := o.sessions.AdvanceParent(ctx, session, parentID); err != nil {
			o.logger.Warn("failed to advance session parent", zap.Error(err))
		}
	}

	metrics.RequestsTotal.WithLabelValues("success").Inc()
	return session, reply, reqRecord, nil
}

// PersistBlockingResponse writes the response audit row for a
// completed blocking turn.
func (o *Orchestrator) PersistBlockingResponse(ctx context.Context, reqRecord *entity.RequestRecord, reply *upstream.BlockingReply, outboundBodyJSON string, start time.Time) {
	rec := &entity.ResponseRecord{
		ID:        uuid.NewString(),
		RequestID: reqRecord.ID,
		SessionID: reqRecord.SessionID,
		Timestamp: time.Now(),
		OutboundBodyJSON: outboundBodyJSON,
		ParentID:         reply.ParentID,
		DurationMS:       time.Since(start).Milliseconds(),
	}
	if b, err := json.Marshal(reply); err == nil {
		rec.UpstreamBodyJSON = string(b)
	}
	if reply.ParentID == "" {
		rec.FinishReason = "error"
	} else if len(reply.Choices) > 0 {
		rec.FinishReason = reply.Choices[0].FinishReason
	}
	if reply.Usage != nil {
		rec.PromptTokens = reply.Usage.InputTokens
		rec.CompletionTokens = reply.Usage.OutputTokens
		rec.TotalTokens = reply.Usage.InputTokens + reply.Usage.OutputTokens
	}
	if err := o.responses.Create(ctx, rec); err != nil {
		o.logger.Warn("failed to persist response audit row", zap.Error(err))
	}
}

// PrepareStream resolves the session and opens the upstream stream for
// a streaming turn, returning everything the HTTP handler needs to
// drive the relay.
func (o *Orchestrator) PrepareStream(ctx context.Context, messages []entity.ChatMessage, model string, inboundBodyJSON string) (*entity.Session, *entity.RequestRecord, io.ReadCloser, error) {
	start := time.Now()

	if err := Validate(messages); err != nil {
		return nil, nil, nil, err
	}

	session, err := o.resolveSession(ctx, messages, model)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("error").Inc()
		return nil, nil, nil, err
	}

	envelope := transform.BuildEnvelope(messages, session, model, true)

	reqRecord := &entity.RequestRecord{
		ID:              uuid.NewString(),
		SessionID:       session.ID,
		Timestamp:       start,
		Model:           model,
		Stream:          true,
		InboundBodyJSON: redactInboundBody(inboundBodyJSON),
	}
	if err := o.requests.Create(ctx, reqRecord); err != nil {
		o.logger.Warn("failed to persist request audit row", zap.Error(err))
	}

	body, err := o.upstream.SendMessageStream(ctx, envelope)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("error").Inc()
		o.recordFailure(ctx, reqRecord, err, start)
		return session, reqRecord, nil, err
	}

	return session, reqRecord, body, nil
}

// FinishStream persists the session/audit state once the relay
// finishes a streaming turn.
func (o *Orchestrator) FinishStream(ctx context.Context, session *entity.Session, reqRecord *entity.RequestRecord, result *relay.Result, start time.Time) {
	if result.ClientDisconnected {
		metrics.RequestsTotal.WithLabelValues("client_disconnected").Inc()
	} else {
		metrics.RequestsTotal.WithLabelValues("success").Inc()
	}

	if result.ParentID != "" {
		if err := o.sessions.AdvanceParent(ctx, session, result.ParentID); err != nil {
			o.logger.Warn("failed to advance session parent", zap.Error(err))
		}
	}

	rec := &entity.ResponseRecord{
		ID:           uuid.NewString(),
		RequestID:    reqRecord.ID,
		SessionID:    session.ID,
		Timestamp:    time.Now(),
		ParentID:     result.ParentID,
		PromptTokens: result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:  result.PromptTokens + result.CompletionTokens,
		FinishReason: result.FinishReason,
		DurationMS:   time.Since(start).Milliseconds(),
	}
	if result.ParentID == "" {
		rec.FinishReason = "error"
	}
	if err := o.responses.Create(ctx, rec); err != nil {
		o.logger.Warn("failed to persist response audit row", zap.Error(err))
	}
}

func (o *Orchestrator) recordFailure(ctx context.Context, reqRecord *entity.RequestRecord, err error, start time.Time) {
	ae := apperrors.As(err)
	rec := &entity.ResponseRecord{
		ID:           uuid.NewString(),
		RequestID:    reqRecord.ID,
		SessionID:    reqRecord.SessionID,
		Timestamp:    time.Now(),
		ErrorMessage: ae.Message,
		DurationMS:   time.Since(start).Milliseconds(),
	}
	if cerr := o.responses.Create(ctx, rec); cerr != nil {
		o.logger.Warn("failed to persist failure audit row", zap.Error(cerr))
	}
}
