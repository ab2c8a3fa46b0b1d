package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubLLMClient struct {
	lastReq LLMRequest
	resp    LLMResponse
	err     error
}

func (s *stubLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return s.resp, nil
}

func TestDraftFirstSession(t *testing.T) {
	stub := &stubLLMClient{resp: LLMResponse{Text: "  drafted summary \n"}}
	drafter := NewDrafter(stub, "model-x", 1000, time.Second, nil)

	summary, err := drafter.Draft(context.Background(), "patient reported insomnia", "Ana", nil)
	require.NoError(t, err)
	require.Equal(t, "drafted summary", summary)

	require.Equal(t, "model-x", stub.lastReq.Model)
	require.Len(t, stub.lastReq.Messages, 1)
	prompt := stub.lastReq.Messages[0].Content
	require.Contains(t, prompt, "Patient: Ana")
	require.Contains(t, prompt, "patient reported insomnia")
	require.NotContains(t, prompt, "PREVIOUS CLINICAL SUMMARY")
}

func TestDraftIntegratesPriorSummary(t *testing.T) {
	stub := &stubLLMClient{resp: LLMResponse{Text: "updated"}}
	drafter := NewDrafter(stub, "model-x", 1000, time.Second, nil)

	prior := "earlier course of treatment"
	_, err := drafter.Draft(context.Background(), "notes", "Ana", &prior)
	require.NoError(t, err)

	prompt := stub.lastReq.Messages[0].Content
	require.Contains(t, prompt, "PREVIOUS CLINICAL SUMMARY")
	require.Contains(t, prompt, prior)
}

func TestDraftRejectsEmptyNotes(t *testing.T) {
	drafter := NewDrafter(&stubLLMClient{}, "model-x", 1000, time.Second, nil)
	_, err := drafter.Draft(context.Background(), "   ", "Ana", nil)
	require.Error(t, err)
}

func TestDraftPropagatesClientError(t *testing.T) {
	stub := &stubLLMClient{err: errors.New("quota exceeded")}
	drafter := NewDrafter(stub, "model-x", 1000, time.Second, nil)
	_, err := drafter.Draft(context.Background(), "notes", "Ana", nil)
	require.ErrorContains(t, err, "quota exceeded")
}

func TestDraftRejectsEmptyModelOutput(t *testing.T) {
	stub := &stubLLMClient{resp: LLMResponse{Text: "  "}}
	drafter := NewDrafter(stub, "model-x", 1000, time.Second, nil)
	_, err := drafter.Draft(context.Background(), "notes", "Ana", nil)
	require.Error(t, err)
}

func TestUnconfiguredDrafter(t *testing.T) {
	drafter := NewDrafter(nil, "", 0, 0, nil)
	require.False(t, drafter.IsConfigured())
	_, err := drafter.Draft(context.Background(), "notes", "Ana", nil)
	require.Error(t, err)

	var nilDrafter *Drafter
	require.False(t, nilDrafter.IsConfigured())
}

func TestDraftAppliesTimeout(t *testing.T) {
	stub := &blockingLLMClient{}
	drafter := NewDrafter(stub, "model-x", 1000, 10*time.Millisecond, nil)

	start := time.Now()
	_, err := drafter.Draft(context.Background(), "notes", "Ana", nil)
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second)
	require.True(t, strings.Contains(err.Error(), "deadline") || errors.Is(err, context.DeadlineExceeded))
}

type blockingLLMClient struct{}

func (b *blockingLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	<-ctx.Done()
	return LLMResponse{}, ctx.Err()
}
