package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	llmclient "scriptsmith/internal/llm/client"
)

// Agent roles used to tag calls (see WithRole).
const (
	RoleWriter     = "writer"
	RoleValidator  = "validator"
	RoleSummarizer = "summarizer"
	RoleClassifier = "classifier"
)

// FakeCall is a request observed by FakeClient.
type FakeCall struct {
	Role    string
	Request llmclient.Request
}

type fakeReply struct {
	text string
	err  error
}

// FakeClient returns scripted replies per role for offline runs and tests.
// When a role has no scripted reply left it falls back to a deterministic
// canned answer: first drafts score below the bar, revisions above it.
type FakeClient struct {
	mu      sync.Mutex
	replies map[string][]fakeReply
	calls   []FakeCall
}

func NewFakeClient() *FakeClient {
	return &FakeClient{replies: make(map[string][]fakeReply)}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

// Script queues replies for role, consumed in order.
func (f *FakeClient) Script(role string, replies ...string) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range replies {
		f.replies[role] = append(f.replies[role], fakeReply{text: r})
	}
	return f
}

// Fail queues an error for role.
func (f *FakeClient) Fail(role string, err error) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[role] = append(f.replies[role], fakeReply{err: err})
	return f
}

// Calls returns a copy of the observed requests.
func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

func (f *FakeClient) Generate(ctx context.Context, req llmclient.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	role := RoleFrom(ctx)

	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Role: role, Request: req})
	queue := f.replies[role]
	if len(queue) > 0 {
		r := queue[0]
		f.replies[role] = queue[1:]
		f.mu.Unlock()
		return r.text, r.err
	}
	f.mu.Unlock()

	return cannedReply(role, req.Prompt), nil
}

const fakeRevisedTag = "(revised)"

func cannedReply(role, prompt string) string {
	switch role {
	case RoleWriter:
		title := lineValue(prompt, "Title:")
		if strings.Contains(prompt, "PREVIOUS SCRIPT START") {
			return fmt.Sprintf("HOST: %s Here is what nobody tells you about %s.\nHOST: Comment with your take and subscribe for part two.", fakeRevisedTag, title)
		}
		return fmt.Sprintf("HOST: Today we talk about %s.\nHOST: Thanks for watching.", title)
	case RoleValidator:
		if strings.Contains(prompt, fakeRevisedTag) {
			return "SCORE_HOOK: 2.2\nSCORE_VALUE: 2.1\nSCORE_RETENTION: 2.0\nSCORE_CTA: 2.2\nTOTAL: 8.5\nVERDICT: Strong hook and a concrete call to action."
		}
		return "SCORE_HOOK: 1.0\nSCORE_VALUE: 1.5\nSCORE_RETENTION: 1.5\nSCORE_CTA: 1.0\nTOTAL: 5.0\nVERDICT: Flat opening and a generic ending."
	case RoleSummarizer:
		return "- Key Issues:\n  - Opening does not create curiosity\n  - Call to action is generic\n- Actionable Suggestions:\n  - Open with a surprising fact\n  - Ask viewers to comment with a specific answer"
	case RoleClassifier:
		return "education"
	default:
		return ""
	}
}

func lineValue(text, prefix string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return "this topic"
}
