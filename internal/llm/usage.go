package llm

import (
	"context"
	"sort"
	"sync"

	llmclient "scriptsmith/internal/llm/client"
)

// RoleUsage aggregates calls issued by one agent role.
type RoleUsage struct {
	Role        string `json:"role"`
	Calls       int    `json:"calls"`
	Errors      int    `json:"errors"`
	PromptBytes int    `json:"promptBytes"`
	OutputBytes int    `json:"outputBytes"`
}

// Usage is a CallHook that counts traffic per role. It is safe for
// concurrent use and shared by all runs of a process.
type Usage struct {
	mu     sync.Mutex
	byRole map[string]*RoleUsage
}

func NewUsage() *Usage {
	return &Usage{byRole: make(map[string]*RoleUsage)}
}

func (u *Usage) entry(role string) *RoleUsage {
	e, ok := u.byRole[role]
	if !ok {
		e = &RoleUsage{Role: role}
		u.byRole[role] = e
	}
	return e
}

func (u *Usage) Before(_ context.Context, role string, req llmclient.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	e := u.entry(role)
	e.Calls++
	e.PromptBytes += len(req.Prompt)
}

func (u *Usage) After(_ context.Context, role string, out string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	e := u.entry(role)
	if err != nil {
		e.Errors++
		return
	}
	e.OutputBytes += len(out)
}

// Snapshot returns a copy sorted by role.
func (u *Usage) Snapshot() []RoleUsage {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]RoleUsage, 0, len(u.byRole))
	for _, e := range u.byRole {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })
	return out
}
