package rag

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/xlab/treeprint"
)

type FileReport struct {
	Path   string
	Chunks int
}

// Report is the outcome of one ingestion run.
type Report struct {
	Files []FileReport
}

func (r *Report) add(path string, chunks int) {
	r.Files = append(r.Files, FileReport{Path: path, Chunks: chunks})
}

func (r *Report) TotalChunks() int {
	total := 0
	for _, f := range r.Files {
		total += f.Chunks
	}
	return total
}

// Tree groups the files by directory, each leaf annotated with its chunk
// count.
func (r *Report) Tree() string {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%d files, %d chunks", len(r.Files), r.TotalChunks()))

	byDir := map[string][]FileReport{}
	for _, f := range r.Files {
		dir := filepath.Dir(f.Path)
		byDir[dir] = append(byDir[dir], f)
	}
	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	for _, d := range dirs {
		branch := tree.AddBranch(d)
		for _, f := range byDir[d] {
			branch.AddMetaNode(f.Chunks, filepath.Base(f.Path))
		}
	}
	return tree.String()
}
