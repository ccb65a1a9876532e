// Package file loads the question catalog from a JSON file on disk.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"home-trivia-service/internal/domain"
)

// Catalog reads an ordered JSON array of question records.
type Catalog struct {
	path string
}

func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

func (c *Catalog) LoadCatalog(_ context.Context) ([]domain.Question, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", c.path, err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", c.path, err)
	}
	return questions, nil
}

// StaticCatalog serves a fixed question list (tests and redis/postgres-free
// demo runs).
type StaticCatalog struct {
	questions []domain.Question
}

func NewStaticCatalog(questions []domain.Question) *StaticCatalog {
	return &StaticCatalog{questions: questions}
}

func (c *StaticCatalog) LoadCatalog(_ context.Context) ([]domain.Question, error) {
	return c.questions, nil
}
