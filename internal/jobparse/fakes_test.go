package jobparse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"llm-service/internal/llm"
	"llm-service/internal/webfetch"
)

type fakeFetcher struct {
	doc  webfetch.Document
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (webfetch.Document, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return webfetch.Document{}, f.err
	}
	doc := f.doc
	doc.URL = url
	return doc, nil
}

// plainProvider cannot parse structured output.
type plainProvider struct {
	name string
}

func (p *plainProvider) Name() string { return p.name }

func (p *plainProvider) Generate(ctx context.Context, in llm.GenerateInput) (llm.GeneratedText, error) {
	return llm.GeneratedText{Text: "ok", ProviderID: p.name}, nil
}

// parsingProvider decodes raw as the model's answer.
type parsingProvider struct {
	plainProvider
	raw string
	err error

	mu    sync.Mutex
	texts []string
}

func newParsingProvider(name, raw string) *parsingProvider {
	return &parsingProvider{plainProvider: plainProvider{name: name}, raw: raw}
}

func (p *parsingProvider) ParseStructured(ctx context.Context, text string) (llm.JobPosting, error) {
	p.mu.Lock()
	p.texts = append(p.texts, text)
	p.mu.Unlock()
	if p.err != nil {
		return llm.JobPosting{}, p.err
	}
	return llm.DecodeJobPosting(p.name, p.raw)
}

func (p *parsingProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.texts)
}

type memoryObjects struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryObjects) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return int64(len(data)), nil
}

func (m *memoryObjects) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

const postingHTML = `<html><head><title>Jobs</title><script>var x = 1;</script></head>
<body><nav>Home | Careers</nav>
<h1>Senior Go Engineer</h1>
<p>Acme Corp is hiring in Berlin.</p>
<ul><li>Build services in Go</li><li>Operate Postgres</li></ul>
<footer>Copyright</footer></body></html>`

const postingJSON = "```json\n" + `{"title":"Senior Go Engineer","company":"Acme Corp","location":"Berlin","summary":"Build services",` +
	`"technical_skills":["Go","Postgres"],"soft_skills":["Communication"],"responsibilities":["Build services in Go"],` +
	`"qualifications":["5 years"],"experience_level":"Senior"}` + "\n```"
