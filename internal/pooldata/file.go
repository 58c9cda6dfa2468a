package pooldata

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"swapScope/internal/model"
)

// File reads pools from a JSONL snapshot, one model.Pool per line.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) GetPools(ctx context.Context) ([]model.Pool, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open pool file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var pools []model.Pool
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var pool model.Pool
		if err := json.Unmarshal([]byte(text), &pool); err != nil {
			return nil, fmt.Errorf("parse pool line %d: %w", line, err)
		}
		pools = append(pools, pool)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pool file: %w", err)
	}
	return pools, nil
}
