package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"travel-advisor-go/internal/model"
	"travel-advisor-go/internal/repository"
	"travel-advisor-go/pkg/llm"
	"travel-advisor-go/pkg/log"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

type mockLLM struct {
	reply    string
	err      error
	captured [][]llm.Message
}

func (m *mockLLM) Chat(_ context.Context, messages []llm.Message) (string, error) {
	m.captured = append(m.captured, messages)
	return m.reply, m.err
}

func (m *mockLLM) StreamChatMessages(_ context.Context, messages []llm.Message, writer llm.MessageWriter) (string, error) {
	m.captured = append(m.captured, messages)
	if m.err != nil {
		return "", m.err
	}
	if err := writer.WriteMessage(1, []byte(m.reply)); err != nil {
		return "", err
	}
	return m.reply, nil
}

type failingRepo struct {
	getErr    error
	upsertErr error
}

func (r *failingRepo) Get(_ context.Context, _ string) (*model.ConversationState, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return nil, nil
}

func (r *failingRepo) Upsert(_ context.Context, _ string, _ *model.ConversationState) error {
	return r.upsertErr
}

func (r *failingRepo) Delete(_ context.Context, _ string) error { return nil }

type mockExchangeRepo struct {
	created []*model.Exchange
	err     error
}

func (m *mockExchangeRepo) Create(exchange *model.Exchange) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, exchange)
	return nil
}

func (m *mockExchangeRepo) FindByThreadID(_ string) ([]model.Exchange, error) { return nil, nil }
func (m *mockExchangeRepo) CountByThreadID(_ string) (int64, error)           { return 0, nil }

func newTestService(llmClient llm.Client) ChatService {
	return NewChatService(repository.NewMemoryConversationRepository(), nil, llmClient, 20)
}

func TestRespond_NewThread(t *testing.T) {
	svc := newTestService(&mockLLM{reply: "You need a tourist visa."})

	reply, threadID, err := svc.Respond(context.Background(), "What visa do I need for Japan?", "")
	require.NoError(t, err)
	require.NotEmpty(t, threadID)
	require.Equal(t, model.RoleAssistant, reply.Role)
	require.Equal(t, "You need a tourist visa.", reply.Content)
}

func TestRespond_GeneratedThreadIDsAreDistinct(t *testing.T) {
	svc := newTestService(&mockLLM{reply: "ok"})

	_, first, err := svc.Respond(context.Background(), "hello", "")
	require.NoError(t, err)
	_, second, err := svc.Respond(context.Background(), "hello", "")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestRespond_KeepsCallerSuppliedThreadID(t *testing.T) {
	svc := newTestService(&mockLLM{reply: "ok"})

	_, threadID, err := svc.Respond(context.Background(), "hello", "thread-42")
	require.NoError(t, err)
	require.Equal(t, "thread-42", threadID)
}

func TestRespond_TwoExchangesAccumulateFourMessages(t *testing.T) {
	svc := newTestService(&mockLLM{reply: "sure"})

	_, threadID, err := svc.Respond(context.Background(), "first question", "")
	require.NoError(t, err)
	_, _, err = svc.Respond(context.Background(), "second question", threadID)
	require.NoError(t, err)

	history, err := svc.History(context.Background(), threadID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, "first question", history[0].Content)
	require.Equal(t, model.RoleUser, history[0].Role)
	require.Equal(t, model.RoleAssistant, history[1].Role)
	require.Equal(t, "second question", history[2].Content)
	require.Equal(t, model.RoleAssistant, history[3].Role)
}

func TestRespond_CountryQuestionRendersCountryPrompt(t *testing.T) {
	mock := &mockLLM{reply: "ok"}
	svc := newTestService(mock)

	_, _, err := svc.Respond(context.Background(), "What visa do I need for Japan?", "")
	require.NoError(t, err)

	require.Len(t, mock.captured, 1)
	messages := mock.captured[0]
	require.Equal(t, model.RoleSystem, messages[0].Role)
	require.Contains(t, messages[0].Content, "travel to Japan")
	require.Equal(t, "What visa do I need for Japan?", messages[len(messages)-1].Content)
}

func TestRespond_GeneralQuestionRendersGeneralPrompt(t *testing.T) {
	mock := &mockLLM{reply: "ok"}
	svc := newTestService(mock)

	_, _, err := svc.Respond(context.Background(), "How long can I stay abroad?", "")
	require.NoError(t, err)

	messages := mock.captured[0]
	require.Contains(t, messages[0].Content, "passport and visa advisory agent")
	require.NotContains(t, messages[0].Content, "{country}")
}

func TestRespond_NewDetectionOverridesStaleCountry(t *testing.T) {
	mock := &mockLLM{reply: "ok"}
	svc := newTestService(mock)

	_, threadID, err := svc.Respond(context.Background(), "Tell me about France", "")
	require.NoError(t, err)
	_, _, err = svc.Respond(context.Background(), "And what about Germany?", threadID)
	require.NoError(t, err)

	require.Contains(t, mock.captured[1][0].Content, "travel to Germany")
	require.NotContains(t, mock.captured[1][0].Content, "France")
}

func TestRespond_ModelFailureLeavesHistoryUnchanged(t *testing.T) {
	mock := &mockLLM{reply: "ok"}
	svc := newTestService(mock)

	_, threadID, err := svc.Respond(context.Background(), "first question", "")
	require.NoError(t, err)
	before, err := svc.History(context.Background(), threadID)
	require.NoError(t, err)

	mock.err = errors.New("provider unavailable")
	_, _, err = svc.Respond(context.Background(), "second question", threadID)
	require.Error(t, err)

	after, err := svc.History(context.Background(), threadID)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestRespond_StoreGetErrorPropagates(t *testing.T) {
	svc := NewChatService(&failingRepo{getErr: errors.New("redis down")}, nil, &mockLLM{reply: "ok"}, 20)
	_, _, err := svc.Respond(context.Background(), "hello", "thread-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load conversation state")
}

func TestRespond_StoreUpsertErrorPropagates(t *testing.T) {
	svc := NewChatService(&failingRepo{upsertErr: errors.New("redis down")}, nil, &mockLLM{reply: "ok"}, 20)
	_, _, err := svc.Respond(context.Background(), "hello", "thread-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to persist conversation state")
}

func TestRespond_LongHistoryIsTrimmedForModel(t *testing.T) {
	mock := &mockLLM{reply: "ok"}
	svc := NewChatService(repository.NewMemoryConversationRepository(), nil, mock, 4)

	threadID := ""
	var err error
	for i := 0; i < 5; i++ {
		_, threadID, err = svc.Respond(context.Background(), "question "+strings.Repeat("x", i+1), threadID)
		require.NoError(t, err)
	}

	// 完整历史不受裁剪影响
	history, err := svc.History(context.Background(), threadID)
	require.NoError(t, err)
	require.Len(t, history, 10)

	// 模型只看到 system prompt 加裁剪后的窗口
	last := mock.captured[len(mock.captured)-1]
	require.LessOrEqual(t, len(last), 5)
	require.Equal(t, model.RoleSystem, last[0].Role)
	require.Equal(t, model.RoleUser, last[1].Role)
}

func TestHistory_UnknownThreadReturnsEmpty(t *testing.T) {
	svc := newTestService(&mockLLM{reply: "ok"})
	history, err := svc.History(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestClear_ThenHistoryIsEmpty(t *testing.T) {
	svc := newTestService(&mockLLM{reply: "ok"})

	_, threadID, err := svc.Respond(context.Background(), "hello", "")
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), threadID))
	history, err := svc.History(context.Background(), threadID)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestClear_UnknownThreadIsNoOp(t *testing.T) {
	svc := newTestService(&mockLLM{reply: "ok"})
	require.NoError(t, svc.Clear(context.Background(), "never-existed"))
}

func TestRespond_ArchivesExchange(t *testing.T) {
	archive := &mockExchangeRepo{}
	svc := NewChatService(repository.NewMemoryConversationRepository(), archive, &mockLLM{reply: "visa info"}, 20)

	_, threadID, err := svc.Respond(context.Background(), "What visa do I need for Japan?", "")
	require.NoError(t, err)

	require.Len(t, archive.created, 1)
	require.Equal(t, threadID, archive.created[0].ThreadID)
	require.Equal(t, "What visa do I need for Japan?", archive.created[0].Question)
	require.Equal(t, "visa info", archive.created[0].Answer)
	require.Equal(t, "Japan", archive.created[0].Country)
	require.Equal(t, string(model.QueryTypeCountry), archive.created[0].QueryType)
}

func TestRespond_ArchiveFailureDoesNotFailRequest(t *testing.T) {
	archive := &mockExchangeRepo{err: errors.New("mysql down")}
	svc := NewChatService(repository.NewMemoryConversationRepository(), archive, &mockLLM{reply: "ok"}, 20)

	_, threadID, err := svc.Respond(context.Background(), "hello", "")
	require.NoError(t, err)

	history, err := svc.History(context.Background(), threadID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

type collectWriter struct {
	chunks []string
}

func (w *collectWriter) WriteMessage(_ int, data []byte) error {
	w.chunks = append(w.chunks, string(data))
	return nil
}

func TestRespondStream_PersistsLikeRespond(t *testing.T) {
	svc := newTestService(&mockLLM{reply: "streamed reply"})
	writer := &collectWriter{}

	reply, threadID, err := svc.RespondStream(context.Background(), "hello", "", writer)
	require.NoError(t, err)
	require.Equal(t, "streamed reply", reply.Content)
	require.Equal(t, []string{"streamed reply"}, writer.chunks)

	history, err := svc.History(context.Background(), threadID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "streamed reply", history[1].Content)
}
