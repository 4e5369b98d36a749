// Package seed loads YAML fixtures and replays their revision history
// through the document service, so seeded data follows the same versioning
// rules as live traffic.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	versionSvc "promptvault/internal/domain/services/versioning"
)

//go:embed fixtures/prompts.yaml
var defaultFixture []byte

// Fixture is the top-level seed file
type Fixture struct {
	Documents []DocumentFixture `yaml:"documents"`
}

// DocumentFixture is one document and the saves applied after creating it
type DocumentFixture struct {
	Title     string            `yaml:"title"`
	Label     string            `yaml:"label"`
	Content   string            `yaml:"content"`
	Revisions []RevisionFixture `yaml:"revisions"`
}

// RevisionFixture is one save. Empty title or label keep the previous value.
type RevisionFixture struct {
	Title             string  `yaml:"title"`
	Label             string  `yaml:"label"`
	Content           string  `yaml:"content"`
	ChangeDescription *string `yaml:"change_description"`
}

// Result summarizes a seeding run
type Result struct {
	Documents int
	Versions  int
}

// Load decodes a fixture and checks that every document can be created
func Load(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("fixture is empty")
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	for i, doc := range f.Documents {
		if doc.Title == "" || doc.Label == "" {
			return nil, fmt.Errorf("document %d: title and label are required", i)
		}
	}
	return &f, nil
}

// Default returns the fixture bundled with the binary
func Default() (*Fixture, error) {
	return Load(bytes.NewReader(defaultFixture))
}

// Seeder creates fixture documents through the document service
type Seeder struct {
	docs        versionSvc.DocumentService
	concurrency int
	logger      *slog.Logger
}

// NewSeeder creates a seeder that seeds up to concurrency documents at once
func NewSeeder(docs versionSvc.DocumentService, concurrency int, logger *slog.Logger) *Seeder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Seeder{docs: docs, concurrency: concurrency, logger: logger}
}

// Run seeds every document of the fixture. Revisions of one document are
// applied in order; documents are seeded concurrently. The first error
// cancels the remaining work.
func (s *Seeder) Run(ctx context.Context, f *Fixture) (Result, error) {
	var documents, versions atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, doc := range f.Documents {
		g.Go(func() error {
			created, err := s.seedDocument(gctx, doc)
			if err != nil {
				return fmt.Errorf("seed %q: %w", doc.Title, err)
			}
			documents.Add(1)
			versions.Add(int64(created))
			return nil
		})
	}

	err := g.Wait()
	res := Result{Documents: int(documents.Load()), Versions: int(versions.Load())}
	return res, err
}

// seedDocument returns the number of versions the document ends up with
func (s *Seeder) seedDocument(ctx context.Context, f DocumentFixture) (int, error) {
	doc, err := s.docs.CreateDocument(ctx, &versionSvc.CreateDocumentRequest{
		Title:   f.Title,
		Content: f.Content,
		Label:   f.Label,
	})
	if err != nil {
		return 0, err
	}

	versions := 1
	title, label := doc.Title, doc.Label
	for i, rev := range f.Revisions {
		if rev.Title != "" {
			title = rev.Title
		}
		if rev.Label != "" {
			label = rev.Label
		}

		res, err := s.docs.UpdateDocument(ctx, doc.ID, &versionSvc.UpdateDocumentRequest{
			Title:             title,
			Content:           rev.Content,
			Label:             label,
			ChangeDescription: rev.ChangeDescription,
		})
		if err != nil {
			return versions, fmt.Errorf("revision %d: %w", i+1, err)
		}
		if res.VersionCreated {
			versions++
		}
	}

	s.logger.Info("document seeded",
		"id", doc.ID,
		"title", title,
		"label", label,
		"versions", versions,
	)
	return versions, nil
}
