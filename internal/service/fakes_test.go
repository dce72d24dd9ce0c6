package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/liliang-cn/standbot/internal/domain"
)

type fakeDocs struct {
	mu   sync.Mutex
	docs map[string]*domain.Document
	err  error
}

func newFakeDocs(docs ...*domain.Document) *fakeDocs {
	f := &fakeDocs{docs: make(map[string]*domain.Document)}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *fakeDocs) sorted(website string) []*domain.Document {
	var out []*domain.Document
	for _, d := range f.docs {
		if website == "" || d.Website == website {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (f *fakeDocs) Get(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.docs[id]; ok {
		return d, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDocs) Upsert(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if doc.ID == "" {
		doc.ID = "gen-" + doc.Title
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeDocs) List(_ context.Context, website string) ([]*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(website), f.err
}

func (f *fakeDocs) ListWithEmbeddings(_ context.Context, website string) ([]*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Document
	for _, d := range f.sorted(website) {
		if len(d.Embedding) > 0 {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocs) QueryByField(_ context.Context, website, field, value string) ([]*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Document
	for _, d := range f.sorted(website) {
		if field == "title" && d.Title == value {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocs) FindByURL(_ context.Context, website, url string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.sorted(website) {
		if d.URL == url {
			return d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDocs) FindByStandNumber(_ context.Context, website, number string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, d := range f.sorted(website) {
		if d.HasStandNumber(number) {
			return d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDocs) Count(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs), nil
}

// fakeEmbedder returns vectors[text] or fallback, and records every input
type fakeEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float64
	fallback []float64
	err      error
	inputs   []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.fallback, nil
}

func (f *fakeEmbedder) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.inputs...)
}

type completion struct {
	system string
	user   string
}

type fakeLLM struct {
	mu      sync.Mutex
	answers []string
	err     error
	calls   []completion
}

func (f *fakeLLM) Complete(_ context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, completion{system: system, user: user})
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "I do not know.", nil
	}
	answer := f.answers[0]
	if len(f.answers) > 1 {
		f.answers = f.answers[1:]
	}
	return answer, nil
}

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1].user
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	err      error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]*domain.Profile)}
}

func (f *fakeProfiles) Get(_ context.Context, sessionID string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.profiles[sessionID]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProfiles) Upsert(_ context.Context, p *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.SessionID] = p
	return nil
}

type fakeChatLogs struct {
	mu   sync.Mutex
	logs []*domain.ChatLog
	fail bool
}

func (f *fakeChatLogs) Record(_ context.Context, log *domain.ChatLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk full")
	}
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeChatLogs) ListBySession(_ context.Context, sessionID string) ([]*domain.ChatLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ChatLog
	for _, l := range f.logs {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeChatLogs) CountChats(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs), nil
}
