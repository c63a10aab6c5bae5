package rag

import (
	"context"
	"fmt"
	"log"
	"maps"
	"path/filepath"

	"RagBot/app/splitter"
	"RagBot/app/utils"
)

type Ingester struct {
	store    VectorStore
	splitter splitter.Interface
}

func NewIngester(store VectorStore, sp splitter.Interface) *Ingester {
	return &Ingester{store: store, splitter: sp}
}

// Ingest reads, splits and stores every file as one batch. metadatas[i]
// applies to paths[i]; files without an entry get {"source": path}. Nothing
// is written unless every file was read.
func (in *Ingester) Ingest(ctx context.Context, paths []string, metadatas []map[string]string) (*Report, error) {
	report := &Report{}
	var batch []Chunk

	for i, path := range paths {
		text, err := ReadText(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		md := map[string]string{MetaSource: path}
		if i < len(metadatas) && metadatas[i] != nil {
			md = metadatas[i]
		}

		source := sourceID(path)
		pieces := in.splitter.Split(text)
		for j, piece := range pieces {
			batch = append(batch, Chunk{
				Text:     piece,
				SourceID: source,
				Index:    j,
				Metadata: maps.Clone(md),
			})
		}
		report.add(path, len(pieces))
	}

	if len(batch) == 0 {
		return report, nil
	}
	if err := in.store.Add(ctx, batch); err != nil {
		return nil, err
	}
	log.Printf("📥 Ingested %d chunks from %d files", len(batch), len(paths))
	return report, nil
}

// sourceID names a file by its cleaned slash path so same-named files in
// different folders never share chunk ids.
func sourceID(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// IngestDir ingests every supported file under dir.
func (in *Ingester) IngestDir(ctx context.Context, dir string) (*Report, error) {
	paths, err := utils.LoadFilesFromDir(dir, SupportedExtensions)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	if len(paths) == 0 {
		log.Printf("⚠️ No documents found in %s", dir)
		return &Report{}, nil
	}
	return in.Ingest(ctx, paths, nil)
}

// Bootstrap fills an empty collection from dir. A collection that already
// holds chunks is left alone.
func (in *Ingester) Bootstrap(ctx context.Context, dir string) error {
	n, err := in.store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 || dir == "" {
		return nil
	}
	report, err := in.IngestDir(ctx, dir)
	if err != nil {
		return err
	}
	log.Printf("✅ Bootstrapped collection from %s\n%s", dir, report.Tree())
	return nil
}
