package blockrepo

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/chainindex/internal/index/blobstore"
	"github.com/goodnatureofminers/chainindex/internal/index/model"
)

// BlobSource reads pre-serialized blocks from the "blocks/<hash>" cache
// described in spec.md §6, using the same blobstore.Store port the
// Checkpoint Store is built on.
type BlobSource struct {
	blobs blobstore.Store
}

// NewBlobSource wraps blobs as a Repository.
func NewBlobSource(blobs blobstore.Store) *BlobSource {
	return &BlobSource{blobs: blobs}
}

func blockBlobName(hash model.Hash) string {
	return "blocks/" + hash.String()
}

// GetBlocks implements Repository, preserving input order.
func (s *BlobSource) GetBlocks(ctx context.Context, hashes []model.Hash) ([]model.Block, error) {
	blocks := make([]model.Block, 0, len(hashes))
	for _, h := range hashes {
		data, err := s.blobs.Get(ctx, blockBlobName(h))
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("blockrepo: block %s not cached", h)
		}
		if err != nil {
			return nil, fmt.Errorf("blockrepo: read cached block %s: %w", h, err)
		}
		var block model.Block
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&block); err != nil {
			return nil, fmt.Errorf("blockrepo: decode cached block %s: %w", h, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// PutBlock caches a block for later BlobSource reads.
func (s *BlobSource) PutBlock(ctx context.Context, block model.Block) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(block); err != nil {
		return fmt.Errorf("blockrepo: encode block %s: %w", block.Header.Hash, err)
	}
	return s.blobs.Put(ctx, blockBlobName(block.Header.Hash), buf.Bytes())
}

var _ Repository = (*BlobSource)(nil)
